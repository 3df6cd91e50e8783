// Package export streams the stored call graph to Graphviz DOT or JSON
// without loading it into memory.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"path"
	"strings"

	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// Format names an export encoding.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat validates a format name. Empty means DOT.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Source streams store rows. *storage.Store satisfies it.
type Source interface {
	Symbols(ctx context.Context) iter.Seq2[storage.Symbol, error]
	CallEdges(ctx context.Context) iter.Seq2[storage.CallEdge, error]
}

// Counts reports what was written.
type Counts struct {
	Nodes int
	Edges int
}

// Write encodes the whole graph from src to w.
func Write(ctx context.Context, src Source, w io.Writer, format Format) (Counts, error) {
	bw := bufio.NewWriter(w)
	var (
		counts Counts
		err    error
	)
	switch format {
	case FormatDOT, "":
		counts, err = writeDOT(ctx, src, bw)
	case FormatJSON:
		counts, err = writeJSON(ctx, src, bw)
	default:
		return Counts{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return counts, err
	}
	if err := bw.Flush(); err != nil {
		return counts, fmt.Errorf("failed to flush export: %w", err)
	}
	return counts, nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// writeDOT emits one node per symbol and one edge per distinct resolved
// caller/callee pair. Unresolved calls have no target node and are skipped.
func writeDOT(ctx context.Context, src Source, w *bufio.Writer) (Counts, error) {
	var counts Counts

	fmt.Fprintln(w, "digraph CallGraph {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box];")
	fmt.Fprintln(w)

	for sym, err := range src.Symbols(ctx) {
		if err != nil {
			return counts, fmt.Errorf("failed to read symbols: %w", err)
		}
		label := dotEscaper.Replace(sym.QualifiedName()) + `\n` + dotEscaper.Replace(path.Base(sym.File))
		fmt.Fprintf(w, "  %q [label=\"%s\"];\n", sym.ID, label)
		counts.Nodes++
	}

	fmt.Fprintln(w)
	seen := make(map[[2]string]bool)
	for e, err := range src.CallEdges(ctx) {
		if err != nil {
			return counts, fmt.Errorf("failed to read call edges: %w", err)
		}
		if e.CalleeID == nil {
			continue
		}
		pair := [2]string{e.CallerID, *e.CalleeID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		fmt.Fprintf(w, "  %q -> %q;\n", e.CallerID, *e.CalleeID)
		counts.Edges++
	}

	_, err := fmt.Fprintln(w, "}")
	return counts, err
}

type jsonNode struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Container *string `json:"container,omitempty"`
	File      string  `json:"file"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Language  string  `json:"language"`
	Signature string  `json:"signature"`
	Exported  bool    `json:"exported"`
}

type jsonEdge struct {
	CallerID   string  `json:"caller_id"`
	CallerName string  `json:"caller_name"`
	CalleeName string  `json:"callee_name"`
	CalleeID   *string `json:"callee_id"`
	Line       int     `json:"line"`
	Column     int     `json:"column"`
}

// writeJSON emits {"nodes":[...],"edges":[...]} one element at a time.
// Unlike DOT, every call site is kept, unresolved ones with a null callee_id.
func writeJSON(ctx context.Context, src Source, w *bufio.Writer) (Counts, error) {
	var counts Counts

	element := func(first bool, v any) error {
		if !first {
			w.WriteString(",")
		}
		w.WriteString("\n    ")
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	w.WriteString(`{` + "\n" + `  "nodes": [`)
	for sym, err := range src.Symbols(ctx) {
		if err != nil {
			return counts, fmt.Errorf("failed to read symbols: %w", err)
		}
		node := jsonNode{
			ID:        sym.ID,
			Name:      sym.Name,
			Kind:      sym.Kind,
			Container: sym.Container,
			File:      sym.File,
			StartLine: sym.StartLine,
			EndLine:   sym.EndLine,
			Language:  sym.Language,
			Signature: sym.Signature,
			Exported:  sym.IsExported,
		}
		if err := element(counts.Nodes == 0, node); err != nil {
			return counts, fmt.Errorf("failed to encode symbol %s: %w", sym.ID, err)
		}
		counts.Nodes++
	}
	w.WriteString("\n  ],\n" + `  "edges": [`)

	for e, err := range src.CallEdges(ctx) {
		if err != nil {
			return counts, fmt.Errorf("failed to read call edges: %w", err)
		}
		edge := jsonEdge{
			CallerID:   e.CallerID,
			CallerName: e.CallerName,
			CalleeName: e.CalleeName,
			CalleeID:   e.CalleeID,
			Line:       e.CallSiteLine,
			Column:     e.CallSiteColumn,
		}
		if err := element(counts.Edges == 0, edge); err != nil {
			return counts, fmt.Errorf("failed to encode call edge: %w", err)
		}
		counts.Edges++
	}

	_, err := w.WriteString("\n  ]\n}\n")
	return counts, err
}
