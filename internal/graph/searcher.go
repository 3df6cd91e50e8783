package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// Searcher answers caller, callee, chain and full-path queries over the
// store. Only resolved edges are traversed. It is safe for concurrent use.
type Searcher struct {
	reader   Reader
	chains   ChainReader
	maxPaths int

	// Adjacency lists keyed by generation, direction and symbol id.
	cache    otter.Cache[string, []string]
	mu       sync.Mutex
	cacheGen string
}

type searcherConfig struct {
	maxPaths  int
	cacheSize int
	chains    ChainReader
}

// SearcherOption configures a Searcher.
type SearcherOption func(*searcherConfig)

// WithMaxPaths bounds the number of unique full paths returned.
func WithMaxPaths(n int) SearcherOption {
	return func(c *searcherConfig) {
		if n > 0 {
			c.maxPaths = n
		}
	}
}

// WithCacheSize sets the adjacency cache capacity in ids.
func WithCacheSize(n int) SearcherOption {
	return func(c *searcherConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithChainStore serves chains materialized during ingestion from store.
// The searcher only reads from it.
func WithChainStore(store ChainReader) SearcherOption {
	return func(c *searcherConfig) {
		c.chains = store
	}
}

// NewSearcher creates a query engine over reader.
func NewSearcher(reader Reader, opts ...SearcherOption) (*Searcher, error) {
	cfg := searcherConfig{maxPaths: DefaultMaxPaths, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := otter.MustBuilder[string, []string](cfg.cacheSize).
		Cost(func(_ string, ids []string) uint32 { return uint32(len(ids)) + 1 }).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build adjacency cache: %w", err)
	}

	return &Searcher{
		reader:   reader,
		chains:   cfg.chains,
		maxPaths: cfg.maxPaths,
		cache:    cache,
	}, nil
}

// Close releases the adjacency cache.
func (s *Searcher) Close() error {
	s.cache.Close()
	return nil
}

// ready gates every query on the generation flag and returns the current
// generation id. An empty store is ready and answers with empty results.
func (s *Searcher) ready(ctx context.Context) (string, error) {
	gen, err := s.reader.Generation(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read index generation: %w", err)
	}
	if gen.State == storage.GenerationBuilding {
		return "", ErrGenerationNotReady
	}

	s.mu.Lock()
	if gen.ID != s.cacheGen {
		s.cache.Clear()
		s.cacheGen = gen.ID
	}
	s.mu.Unlock()

	return gen.ID, nil
}

type adjacencyFunc func(ctx context.Context, gen, id string) ([]string, error)

func (s *Searcher) callees(ctx context.Context, gen, id string) ([]string, error) {
	return s.adjacent(ctx, gen, "out", id, s.reader.CalleeIDs)
}

func (s *Searcher) callers(ctx context.Context, gen, id string) ([]string, error) {
	return s.adjacent(ctx, gen, "in", id, s.reader.CallerIDs)
}

func (s *Searcher) adjacent(ctx context.Context, gen, dir, id string, load func(context.Context, string) ([]string, error)) ([]string, error) {
	key := gen + "|" + dir + "|" + id
	if ids, ok := s.cache.Get(key); ok {
		return ids, nil
	}

	ids, err := load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, ids)
	return ids, nil
}

// GetCallers returns the symbols calling name, one entry per caller symbol.
func (s *Searcher) GetCallers(ctx context.Context, name string) ([]CallerInfo, error) {
	if _, err := s.ready(ctx); err != nil {
		return nil, err
	}

	groups, err := s.reader.AggregateCallers(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]CallerInfo, 0, len(groups))
	for _, g := range groups {
		out = append(out, CallerInfo{
			SymbolID:  g.SymbolID,
			Name:      g.Name,
			File:      g.File,
			Line:      g.Line,
			CallCount: g.CallCount,
		})
	}
	return out, nil
}

// GetCallees returns what name calls: one entry per resolved target, plus
// one per unresolved name reported against ExternalFile.
func (s *Searcher) GetCallees(ctx context.Context, name string) ([]CalleeInfo, error) {
	if _, err := s.ready(ctx); err != nil {
		return nil, err
	}

	groups, err := s.reader.AggregateCallees(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]CalleeInfo, 0, len(groups))
	for _, g := range groups {
		info := CalleeInfo{Name: g.Name, CallCount: g.CallCount}
		if g.SymbolID == nil {
			info.File = ExternalFile
			info.External = true
		} else {
			info.SymbolID = *g.SymbolID
			if g.File != nil {
				info.File = *g.File
			}
			if g.Line != nil {
				info.Line = *g.Line
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// GetCallChain enumerates downward paths from every symbol named name.
// A path ends at a leaf, at maxDepth edges, or where every successor is
// already on the path (Cycle is set). Identical id sequences are returned once.
// Chains materialized for the current generation are served from the store.
func (s *Searcher) GetCallChain(ctx context.Context, name string, maxDepth int) (*ChainResult, error) {
	gen, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	maxDepth = clampDepth(maxDepth)

	result := &ChainResult{Root: name, MaxDepth: maxDepth, Paths: []CallPath{}}

	if s.chains != nil && gen != "" {
		cached, ok, err := s.chains.LoadCallChains(ctx, name, maxDepth, gen)
		if err != nil {
			return nil, err
		}
		if ok {
			raw := make([]rawPath, 0, len(cached))
			for _, c := range cached {
				raw = append(raw, rawPath{ids: c.PathIDs, cycle: c.Cycle})
			}
			if result.Paths, err = s.hydrate(ctx, raw); err != nil {
				return nil, err
			}
			result.Cached = true
			return result, nil
		}
	}

	raw, err := s.chainPaths(ctx, gen, name, maxDepth)
	if err != nil {
		return nil, err
	}
	if result.Paths, err = s.hydrate(ctx, raw); err != nil {
		return nil, err
	}
	return result, nil
}

// chainPaths walks down from every definition of name without consulting
// the generation gate.
func (s *Searcher) chainPaths(ctx context.Context, gen, name string, maxDepth int) ([]rawPath, error) {
	roots, err := s.reader.SymbolsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	var raw []rawPath
	seen := make(map[string]bool)
	emit := func(ids []string, cycle bool) {
		key := pathKey(ids)
		if seen[key] {
			return
		}
		seen[key] = true
		raw = append(raw, rawPath{ids: slices.Clone(ids), cycle: cycle})
	}

	for _, root := range roots {
		onPath := map[string]bool{root.ID: true}
		if err := s.walkDown(ctx, gen, []string{root.ID}, onPath, maxDepth, emit); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func (s *Searcher) walkDown(ctx context.Context, gen string, path []string, onPath map[string]bool, maxDepth int, emit func([]string, bool)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(path)-1 >= maxDepth {
		emit(path, false)
		return nil
	}

	next, err := s.callees(ctx, gen, path[len(path)-1])
	if err != nil {
		return err
	}

	extended, blocked := false, false
	for _, id := range next {
		if onPath[id] {
			blocked = true
			continue
		}
		extended = true
		onPath[id] = true
		err := s.walkDown(ctx, gen, append(path, id), onPath, maxDepth, emit)
		delete(onPath, id)
		if err != nil {
			return err
		}
	}

	if !extended {
		emit(path, blocked)
	}
	return nil
}

// GetFullCallPaths returns every path entry -> ... -> name -> ... -> leaf.
// Upward paths start at symbols with no callers, downward paths end at
// symbols with no callees; each half is capped at maxDepth edges and paths
// that would exceed it are dropped. When a side has no such path the target
// alone stands in for it. The result is bounded by the configured maximum
// path count and Truncated reports whether paths were left out.
func (s *Searcher) GetFullCallPaths(ctx context.Context, name string, maxDepth int) (*FullPathResult, error) {
	start := time.Now()

	gen, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	maxDepth = clampDepth(maxDepth)

	result := &FullPathResult{Target: name, MaxDepth: maxDepth, Paths: []CallPath{}}

	targets, err := s.reader.SymbolsByName(ctx, name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var unique []rawPath

	for _, target := range targets {
		ups, upTrunc, err := s.collectEndpoints(ctx, gen, target.ID, maxDepth, s.callers)
		if err != nil {
			return nil, err
		}
		downs, downTrunc, err := s.collectEndpoints(ctx, gen, target.ID, maxDepth, s.callees)
		if err != nil {
			return nil, err
		}
		if upTrunc || downTrunc {
			result.Truncated = true
		}
		if len(ups) == 0 {
			ups = [][]string{{target.ID}}
		}
		if len(downs) == 0 {
			downs = [][]string{{target.ID}}
		}
		result.Stats.EntryPaths += len(ups)
		result.Stats.LeafPaths += len(downs)

		for _, up := range ups {
			slices.Reverse(up) // entry first
			for _, down := range downs {
				result.Stats.RawPathCount++

				full := make([]string, 0, len(up)+len(down)-1)
				full = append(full, up...)
				full = append(full, down[1:]...)

				key := pathKey(full)
				if seen[key] {
					continue
				}
				if len(unique) >= s.maxPaths {
					result.Truncated = true
					continue
				}
				seen[key] = true
				unique = append(unique, rawPath{ids: full})
			}
		}
	}

	if result.Paths, err = s.hydrate(ctx, unique); err != nil {
		return nil, err
	}
	result.Stats.UniquePathCount = len(result.Paths)
	result.Stats.Elapsed = time.Since(start)

	return result, nil
}

// collectEndpoints walks from id along next until symbols with no further
// neighbours, returning paths that start at id. At most maxPaths+1 paths are
// collected; truncated reports that the limit was hit.
func (s *Searcher) collectEndpoints(ctx context.Context, gen, id string, maxDepth int, next adjacencyFunc) ([][]string, bool, error) {
	var out [][]string
	truncated := false

	var walk func(path []string, onPath map[string]bool) error
	walk = func(path []string, onPath map[string]bool) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(out) > s.maxPaths {
			truncated = true
			return nil
		}

		neighbours, err := next(ctx, gen, path[len(path)-1])
		if err != nil {
			return err
		}
		if len(neighbours) == 0 {
			out = append(out, slices.Clone(path))
			return nil
		}
		if len(path)-1 >= maxDepth {
			return nil
		}

		for _, n := range neighbours {
			if onPath[n] {
				continue
			}
			onPath[n] = true
			err := walk(append(path, n), onPath)
			delete(onPath, n)
			if err != nil {
				return err
			}
		}
		return nil
	}

	err := walk([]string{id}, map[string]bool{id: true})
	return out, truncated, err
}

type rawPath struct {
	ids   []string
	cycle bool
}

// hydrate resolves file and line for every symbol on the paths with one batched lookup.
func (s *Searcher) hydrate(ctx context.Context, raw []rawPath) ([]CallPath, error) {
	if len(raw) == 0 {
		return []CallPath{}, nil
	}

	idSet := make(map[string]struct{})
	for _, r := range raw {
		for _, id := range r.ids {
			idSet[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	symbols, err := s.reader.SymbolsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load path symbols: %w", err)
	}

	paths := make([]CallPath, 0, len(raw))
	for _, r := range raw {
		p := CallPath{Nodes: make([]PathNode, len(r.ids)), Cycle: r.cycle}
		for i, id := range r.ids {
			sym := symbols[id]
			p.Nodes[i] = PathNode{ID: id, Name: sym.Name, File: sym.File, Line: sym.StartLine}
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func pathKey(ids []string) string {
	return strings.Join(ids, "\x00")
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDepth {
		return MaxDepth
	}
	return d
}
