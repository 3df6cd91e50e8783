package graph

import (
	"context"
	"fmt"

	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// MaterializeChains computes the call chains of every root name at maxDepth
// and stores them under generation gen, so later GetCallChain queries on
// that generation read them back instead of walking the graph. It runs
// while the generation is still building and returns the number of chains
// written.
func MaterializeChains(ctx context.Context, reader Reader, chains ChainWriter, gen string, roots []string, maxDepth int) (int, error) {
	s, err := NewSearcher(reader)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	maxDepth = clampDepth(maxDepth)
	total := 0
	for _, name := range roots {
		raw, err := s.chainPaths(ctx, gen, name, maxDepth)
		if err != nil {
			return total, err
		}
		if len(raw) == 0 {
			continue
		}
		paths, err := s.hydrate(ctx, raw)
		if err != nil {
			return total, err
		}

		rows := make([]storage.CallChain, len(raw))
		for i, r := range raw {
			rows[i] = storage.CallChain{
				RootName:     name,
				MaxDepth:     maxDepth,
				PathIndex:    i,
				PathIDs:      r.ids,
				Depth:        len(r.ids) - 1,
				Rendered:     paths[i].String(),
				Cycle:        r.cycle,
				GenerationID: gen,
			}
		}
		if err := chains.SaveCallChains(ctx, name, maxDepth, rows); err != nil {
			return total, fmt.Errorf("failed to save call chains for %s: %w", name, err)
		}
		total += len(rows)
	}
	return total, nil
}
