package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// Query defaults and limits
const (
	DefaultChainDepth    = 5
	DefaultFullPathDepth = 10
	DefaultMaxPaths      = 1000
	DefaultCacheSize     = 10_000
	MaxDepth             = 50
)

// ExternalFile is reported as the file of callees with no definition in the index.
const ExternalFile = "external"

// ErrGenerationNotReady is returned while an ingestion run is in progress.
var ErrGenerationNotReady = errors.New("index generation is still being built")

// Reader is the read side of the store the query engine depends on.
type Reader interface {
	Generation(ctx context.Context) (storage.Generation, error)
	SymbolsByName(ctx context.Context, name string) ([]storage.Symbol, error)
	SymbolsByIDs(ctx context.Context, ids []string) (map[string]storage.Symbol, error)
	CalleeIDs(ctx context.Context, id string) ([]string, error)
	CallerIDs(ctx context.Context, id string) ([]string, error)
	AggregateCallers(ctx context.Context, name string) ([]storage.CallerGroup, error)
	AggregateCallees(ctx context.Context, name string) ([]storage.CalleeGroup, error)
}

// ChainReader serves call chains materialized during ingestion. Optional.
type ChainReader interface {
	LoadCallChains(ctx context.Context, root string, maxDepth int, generationID string) ([]storage.CallChain, bool, error)
}

// ChainWriter persists materialized call chains.
type ChainWriter interface {
	SaveCallChains(ctx context.Context, root string, maxDepth int, chains []storage.CallChain) error
}

// CallerInfo is one symbol that calls the queried name.
type CallerInfo struct {
	SymbolID  string `json:"symbol_id"`
	Name      string `json:"name"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	CallCount int    `json:"call_count"`
}

// CalleeInfo is one target called by the queried name. External callees
// have no definition in the index.
type CalleeInfo struct {
	SymbolID  string `json:"symbol_id,omitempty"`
	Name      string `json:"name"`
	File      string `json:"file"`
	Line      int    `json:"line,omitempty"`
	CallCount int    `json:"call_count"`
	External  bool   `json:"external"`
}

// PathNode is one symbol on a path.
type PathNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// CallPath is an ordered sequence of symbols joined by resolved call edges.
type CallPath struct {
	Nodes []PathNode `json:"nodes"`
	Cycle bool       `json:"cycle,omitempty"` // stopped because every successor was already on the path
}

// Depth is the number of edges in the path.
func (p CallPath) Depth() int {
	return len(p.Nodes) - 1
}

// String renders "a -> b -> c".
func (p CallPath) String() string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name
	}
	return strings.Join(names, " -> ")
}

// Detailed renders "a(file:line) -> b(file:line)".
func (p CallPath) Detailed() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			b.WriteString(" -> ")
		}
		fmt.Fprintf(&b, "%s(%s:%d)", n.Name, n.File, n.Line)
	}
	return b.String()
}

// ChainResult holds the downward call chains rooted at a name.
type ChainResult struct {
	Root     string     `json:"root"`
	MaxDepth int        `json:"max_depth"`
	Paths    []CallPath `json:"paths"`
	Cached   bool       `json:"cached,omitempty"`
}

// FullPathResult holds every entry-to-leaf path through a name.
type FullPathResult struct {
	Target    string     `json:"target"`
	MaxDepth  int        `json:"max_depth"`
	Paths     []CallPath `json:"paths"`
	Truncated bool       `json:"truncated"`
	Stats     PathStats  `json:"stats"`
}

// PathStats reports how a full-path query was computed.
type PathStats struct {
	EntryPaths      int           `json:"entry_paths"` // upward paths from entry points
	LeafPaths       int           `json:"leaf_paths"`  // downward paths to leaves
	RawPathCount    int           `json:"raw_path_count"`
	UniquePathCount int           `json:"unique_path_count"`
	Elapsed         time.Duration `json:"elapsed"`
}
