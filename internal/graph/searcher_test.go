package graph

import (
	"context"
	"testing"

	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Searcher:
// - Callers and callees are inverse relations
// - Unresolved callees are reported as external
// - Chain with maxDepth 0 is the trivial path
// - Chains stop at leaves, at the depth cap and at back edges (Cycle)
// - Self recursion terminates with a path no longer than f -> f
// - main -> calculate -> {add, multiply} gives exactly 2 full paths through calculate
// - Full paths drop halves that exceed the cap and fall back to the target
// - Full paths respect the maximum path count and report truncation
// - Results are deterministic across calls
// - Queries refuse to answer while a generation is building
// - Unknown names and empty stores return empty results
// - Chain queries never write to the store
// - Chains materialized during a build are served for that generation only

type fixture struct {
	t     *testing.T
	store *storage.Store
	syms  map[string]storage.Symbol
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{t: t, store: storage.NewTestStore(t), syms: map[string]storage.Symbol{}}

	var batch []storage.Symbol
	for _, name := range names {
		sym := storage.TestSymbol("id-"+name, "src/"+name+".go", name)
		f.syms[name] = sym
		batch = append(batch, sym)
	}
	require.NoError(t, f.store.InsertSymbols(context.Background(), batch))
	return f
}

func (f *fixture) call(from, to string, line int) {
	f.t.Helper()
	caller := f.syms[from]
	var edge storage.CallEdge
	if callee, ok := f.syms[to]; ok {
		edge = storage.TestEdge(caller, &callee, line)
	} else {
		edge = storage.TestEdge(caller, nil, line)
		edge.CalleeName = to
	}
	require.NoError(f.t, f.store.InsertCallEdge(context.Background(), edge))
}

func (f *fixture) ready() {
	f.t.Helper()
	ctx := context.Background()
	id, err := f.store.BeginGeneration(ctx, "/src", false)
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.CompleteGeneration(ctx, id, "{}"))
}

func (f *fixture) searcher(opts ...SearcherOption) *Searcher {
	f.t.Helper()
	s, err := NewSearcher(f.store, opts...)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { s.Close() })
	return s
}

func calculatorFixture(t *testing.T) *fixture {
	f := newFixture(t, "main", "calculate", "add", "multiply")
	f.call("main", "calculate", 2)
	f.call("calculate", "add", 5)
	f.call("calculate", "multiply", 6)
	f.ready()
	return f
}

func names(p CallPath) []string {
	out := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		out[i] = n.Name
	}
	return out
}

func TestSearcher_CallersCalleesInverse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := calculatorFixture(t)
	s := f.searcher()

	for _, name := range []string{"main", "calculate", "add", "multiply"} {
		callees, err := s.GetCallees(ctx, name)
		require.NoError(t, err)
		for _, callee := range callees {
			callers, err := s.GetCallers(ctx, callee.Name)
			require.NoError(t, err)

			var found bool
			for _, c := range callers {
				found = found || c.Name == name
			}
			assert.True(t, found, "%s should be a caller of %s", name, callee.Name)
		}
	}

	callees, err := s.GetCallees(ctx, "calculate")
	require.NoError(t, err)
	require.Len(t, callees, 2)
	assert.Equal(t, "add", callees[0].Name)
	assert.Equal(t, "src/add.go", callees[0].File)
	assert.Equal(t, 1, callees[0].CallCount)
}

func TestSearcher_ExternalCallee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, "main")
	f.call("main", "printf", 3)
	f.call("main", "printf", 4)
	f.ready()
	s := f.searcher()

	callees, err := s.GetCallees(ctx, "main")
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.True(t, callees[0].External)
	assert.Equal(t, ExternalFile, callees[0].File)
	assert.Equal(t, 2, callees[0].CallCount)

	callers, err := s.GetCallers(ctx, "printf")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "main", callers[0].Name)
}

func TestSearcher_ChainTrivialAtDepthZero(t *testing.T) {
	t.Parallel()
	s := calculatorFixture(t).searcher()

	result, err := s.GetCallChain(context.Background(), "calculate", 0)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{"calculate"}, names(result.Paths[0]))
	assert.Equal(t, 0, result.Paths[0].Depth())
}

func TestSearcher_ChainToLeaves(t *testing.T) {
	t.Parallel()
	s := calculatorFixture(t).searcher()

	result, err := s.GetCallChain(context.Background(), "main", 5)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)
	assert.Equal(t, []string{"main", "calculate", "add"}, names(result.Paths[0]))
	assert.Equal(t, []string{"main", "calculate", "multiply"}, names(result.Paths[1]))
	assert.Equal(t, "main -> calculate -> add", result.Paths[0].String())
	assert.Equal(t, "main(src/main.go:1) -> calculate(src/calculate.go:1) -> add(src/add.go:1)", result.Paths[0].Detailed())
}

func TestSearcher_ChainDepthCap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "a", "b", "c", "d")
	f.call("a", "b", 1)
	f.call("b", "c", 1)
	f.call("c", "d", 1)
	f.ready()

	result, err := f.searcher().GetCallChain(context.Background(), "a", 2)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{"a", "b", "c"}, names(result.Paths[0]))
	assert.False(t, result.Paths[0].Cycle)
}

func TestSearcher_SelfRecursionTerminates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, "f")
	f.call("f", "f", 2)
	f.ready()
	s := f.searcher()

	chain, err := s.GetCallChain(ctx, "f", 10)
	require.NoError(t, err)
	require.Len(t, chain.Paths, 1)
	assert.LessOrEqual(t, chain.Paths[0].Depth(), 1)
	assert.True(t, chain.Paths[0].Cycle)

	full, err := s.GetFullCallPaths(ctx, "f", 10)
	require.NoError(t, err)
	require.Len(t, full.Paths, 1)
	assert.LessOrEqual(t, full.Paths[0].Depth(), 1)
}

func TestSearcher_MutualRecursion(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "ping", "pong")
	f.call("ping", "pong", 1)
	f.call("pong", "ping", 1)
	f.ready()

	result, err := f.searcher().GetCallChain(context.Background(), "ping", 10)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{"ping", "pong"}, names(result.Paths[0]))
	assert.True(t, result.Paths[0].Cycle)
}

func TestSearcher_FullPathsThroughCalculate(t *testing.T) {
	t.Parallel()
	s := calculatorFixture(t).searcher()

	result, err := s.GetFullCallPaths(context.Background(), "calculate", 10)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)
	assert.Equal(t, []string{"main", "calculate", "add"}, names(result.Paths[0]))
	assert.Equal(t, []string{"main", "calculate", "multiply"}, names(result.Paths[1]))
	assert.False(t, result.Truncated)
	assert.Equal(t, 1, result.Stats.EntryPaths)
	assert.Equal(t, 2, result.Stats.LeafPaths)
	assert.Equal(t, 2, result.Stats.RawPathCount)
	assert.Equal(t, 2, result.Stats.UniquePathCount)
}

func TestSearcher_FullPathsDeterministicAndUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Diamond: two routes from main to leaf through mid.
	f := newFixture(t, "main", "left", "right", "mid", "leaf")
	f.call("main", "left", 1)
	f.call("main", "right", 2)
	f.call("left", "mid", 1)
	f.call("right", "mid", 1)
	f.call("mid", "leaf", 1)
	f.ready()
	s := f.searcher()

	first, err := s.GetFullCallPaths(ctx, "mid", 10)
	require.NoError(t, err)
	second, err := s.GetFullCallPaths(ctx, "mid", 10)
	require.NoError(t, err)

	require.Len(t, first.Paths, 2)
	assert.Equal(t, first.Paths, second.Paths)

	seen := map[string]bool{}
	for _, p := range first.Paths {
		key := p.String()
		assert.False(t, seen[key], "duplicate path %s", key)
		seen[key] = true
	}
}

func TestSearcher_FullPathsDepthCap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "entry", "mid", "target", "leaf")
	f.call("entry", "mid", 1)
	f.call("mid", "target", 1)
	f.call("target", "leaf", 1)
	f.ready()

	result, err := f.searcher().GetFullCallPaths(context.Background(), "target", 1)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, []string{"target", "leaf"}, names(result.Paths[0]),
		"the upward half needs two edges and is dropped; the target stands in")
}

func TestSearcher_FullPathsTruncation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "a1", "a2", "a3", "target")
	f.call("a1", "target", 1)
	f.call("a2", "target", 1)
	f.call("a3", "target", 1)
	f.ready()

	result, err := f.searcher(WithMaxPaths(2)).GetFullCallPaths(context.Background(), "target", 5)
	require.NoError(t, err)
	assert.Len(t, result.Paths, 2)
	assert.True(t, result.Truncated)
}

func TestSearcher_GenerationGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := calculatorFixture(t)
	s := f.searcher()

	_, err := f.store.BeginGeneration(ctx, "/src", false)
	require.NoError(t, err)

	_, err = s.GetCallers(ctx, "add")
	assert.ErrorIs(t, err, ErrGenerationNotReady)
	_, err = s.GetCallees(ctx, "main")
	assert.ErrorIs(t, err, ErrGenerationNotReady)
	_, err = s.GetCallChain(ctx, "main", 3)
	assert.ErrorIs(t, err, ErrGenerationNotReady)
	_, err = s.GetFullCallPaths(ctx, "main", 3)
	assert.ErrorIs(t, err, ErrGenerationNotReady)
}

func TestSearcher_EmptyResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	empty := newFixture(t)
	s := empty.searcher()

	callers, err := s.GetCallers(ctx, "anything")
	require.NoError(t, err)
	assert.Empty(t, callers)

	chain, err := s.GetCallChain(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, chain.Paths)

	full, err := calculatorFixture(t).searcher().GetFullCallPaths(ctx, "nonexistent", 5)
	require.NoError(t, err)
	assert.Empty(t, full.Paths)
}

func TestSearcher_ClearThenQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := calculatorFixture(t)
	s := f.searcher()

	_, err := s.GetCallChain(ctx, "main", 5)
	require.NoError(t, err)

	require.NoError(t, f.store.ClearAll(ctx))

	chain, err := s.GetCallChain(ctx, "main", 5)
	require.NoError(t, err)
	assert.Empty(t, chain.Paths, "cached adjacency must not survive a clear")

	callees, err := s.GetCallees(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, callees)
}

func TestSearcher_ChainQueriesDoNotWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := calculatorFixture(t)
	s := f.searcher(WithChainStore(f.store))

	first, err := s.GetCallChain(ctx, "main", 4)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.NotEmpty(t, first.Paths)

	gen, err := f.store.Generation(ctx)
	require.NoError(t, err)
	_, ok, err := f.store.LoadCallChains(ctx, "main", 4, gen.ID)
	require.NoError(t, err)
	assert.False(t, ok, "queries leave call_chains untouched")

	second, err := s.GetCallChain(ctx, "main", 4)
	require.NoError(t, err)
	assert.False(t, second.Cached)
}

func TestSearcher_MaterializedChains(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := calculatorFixture(t)

	gen, err := f.store.BeginGeneration(ctx, "/src", false)
	require.NoError(t, err)
	n, err := MaterializeChains(ctx, f.store, f.store, gen, []string{"main", "missing"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, f.store.CompleteGeneration(ctx, gen, "{}"))

	live, err := f.searcher().GetCallChain(ctx, "main", 4)
	require.NoError(t, err)

	s := f.searcher(WithChainStore(f.store))
	cached, err := s.GetCallChain(ctx, "main", 4)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, live.Paths, cached.Paths)

	other, err := s.GetCallChain(ctx, "main", 3)
	require.NoError(t, err)
	assert.False(t, other.Cached, "only the materialized depth is served from the store")

	f.ready()
	next, err := s.GetCallChain(ctx, "main", 4)
	require.NoError(t, err)
	assert.False(t, next.Cached, "a new generation invalidates materialized chains")
}
