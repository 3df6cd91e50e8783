package graph

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/project-callgraph/internal/indexer/parsers"
	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// Policy decides what happens when a called name has several definitions.
type Policy string

const (
	// PolicyAll emits one edge per matching definition.
	PolicyAll Policy = "all"

	// PolicyCanonical emits one edge: same file first, then same language,
	// then the first match in (file, start_byte, id) order.
	PolicyCanonical Policy = "canonical"
)

// DefaultPolicy is used when none is configured.
const DefaultPolicy = PolicyAll

var ErrUnknownPolicy = errors.New("unknown resolver policy")

// ParsePolicy validates a configured policy name. Empty means DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return DefaultPolicy, nil
	case PolicyAll, PolicyCanonical:
		return Policy(s), nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownPolicy, s, PolicyAll, PolicyCanonical)
}

// Resolver binds call sites to definitions by exact name, project-wide and
// across languages. It reads an immutable name index and is safe to share
// between goroutines.
type Resolver struct {
	index  storage.NameIndex
	policy Policy
}

// NewResolver creates a resolver over index. The index must not be modified afterwards.
func NewResolver(index storage.NameIndex, policy Policy) *Resolver {
	if policy == "" {
		policy = DefaultPolicy
	}
	return &Resolver{index: index, policy: policy}
}

// Policy returns the tie-break policy in use.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve produces the edges for one call site. An unmatched name yields a
// single unresolved edge; the result is never empty.
func (r *Resolver) Resolve(caller storage.Symbol, site parsers.CallSite) []storage.CallEdge {
	base := storage.CallEdge{
		CallerID:       caller.ID,
		CallerName:     caller.Name,
		CallerFile:     caller.File,
		CalleeName:     site.Callee,
		CallSiteLine:   site.Line,
		CallSiteColumn: site.Column,
		Language:       caller.Language,
	}

	matches := r.index[site.Callee]
	if len(matches) == 0 {
		return []storage.CallEdge{base}
	}

	if r.policy == PolicyCanonical {
		return []storage.CallEdge{bind(base, canonical(caller, matches))}
	}

	edges := make([]storage.CallEdge, 0, len(matches))
	for _, m := range matches {
		edges = append(edges, bind(base, m))
	}
	return edges
}

func bind(e storage.CallEdge, target storage.SymbolRef) storage.CallEdge {
	id, file := target.ID, target.File
	e.CalleeID = &id
	e.CalleeFile = &file
	e.Resolved = true
	return e
}

// canonical picks one match. matches is already in (file, start_byte, id) order.
func canonical(caller storage.Symbol, matches []storage.SymbolRef) storage.SymbolRef {
	for _, m := range matches {
		if m.File == caller.File {
			return m
		}
	}
	for _, m := range matches {
		if m.Language == caller.Language {
			return m
		}
	}
	return matches[0]
}
