package graph

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// Subgraph is the call neighbourhood of a name: its definitions plus callers
// and callees up to a depth, joined by resolved edges.
type Subgraph struct {
	Focus string
	Graph graph.Graph[string, storage.Symbol]
}

// Subgraph collects symbols reachable from name within depth edges in
// either direction and builds an in-memory graph of them.
func (s *Searcher) Subgraph(ctx context.Context, name string, depth int) (*Subgraph, error) {
	gen, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	depth = clampDepth(depth)

	roots, err := s.reader.SymbolsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	type edge struct{ from, to string }
	nodes := make(map[string]bool)
	var edges []edge

	expand := func(next adjacencyFunc, forward bool) error {
		frontier := make([]string, 0, len(roots))
		visited := make(map[string]bool)
		for _, r := range roots {
			frontier = append(frontier, r.ID)
			visited[r.ID] = true
		}
		for level := 0; level < depth && len(frontier) > 0; level++ {
			var following []string
			for _, id := range frontier {
				neighbours, err := next(ctx, gen, id)
				if err != nil {
					return err
				}
				for _, n := range neighbours {
					if forward {
						edges = append(edges, edge{id, n})
					} else {
						edges = append(edges, edge{n, id})
					}
					if !visited[n] {
						visited[n] = true
						following = append(following, n)
					}
				}
			}
			frontier = following
		}
		for id := range visited {
			nodes[id] = true
		}
		return nil
	}

	if err := expand(s.callees, true); err != nil {
		return nil, err
	}
	if err := expand(s.callers, false); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	symbols, err := s.reader.SymbolsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load subgraph symbols: %w", err)
	}

	g := graph.New(func(sym storage.Symbol) string { return sym.ID }, graph.Directed())
	for _, id := range ids {
		sym, ok := symbols[id]
		if !ok {
			continue
		}
		attrs := []func(*graph.VertexProperties){
			graph.VertexAttribute("label", fmt.Sprintf("%s\n%s:%d", sym.QualifiedName(), sym.File, sym.StartLine)),
			graph.VertexAttribute("shape", "box"),
		}
		if sym.Name == name {
			attrs = append(attrs, graph.VertexAttribute("style", "filled"))
		}
		if err := g.AddVertex(sym, attrs...); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add vertex %s: %w", sym.Name, err)
		}
	}

	for _, e := range edges {
		err := g.AddEdge(e.from, e.to)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) && !errors.Is(err, graph.ErrVertexNotFound) {
			return nil, fmt.Errorf("failed to add edge: %w", err)
		}
	}

	return &Subgraph{Focus: name, Graph: g}, nil
}

// Order returns the number of symbols in the subgraph.
func (sg *Subgraph) Order() (int, error) {
	return sg.Graph.Order()
}

// Size returns the number of edges in the subgraph.
func (sg *Subgraph) Size() (int, error) {
	return sg.Graph.Size()
}

// WriteDOT renders the subgraph in Graphviz DOT.
func (sg *Subgraph) WriteDOT(w io.Writer) error {
	return draw.DOT(sg.Graph, w, draw.GraphAttribute("rankdir", "LR"))
}
