package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Export:
// - DOT output has the digraph header, one node per symbol, one edge per resolved pair
// - Repeated call sites between the same pair produce a single DOT edge
// - Unresolved calls are left out of DOT but kept in JSON with a null callee
// - JSON output parses and carries every node and edge
// - Empty store produces a valid, empty document
// - Unknown formats are rejected

func seedStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.NewTestStore(t)
	ctx := context.Background()

	main := storage.TestSymbol("id-main", "cmd/main.go", "main")
	run := storage.TestSymbol("id-run", "pkg/run.go", "run")
	container := "Server"
	run.Container = &container
	require.NoError(t, store.InsertSymbols(ctx, []storage.Symbol{main, run}))

	_, err := store.InsertCallEdges(ctx, []storage.CallEdge{
		storage.TestEdge(main, &run, 3),
		storage.TestEdge(main, &run, 4),
		storage.TestEdge(main, nil, 5),
	})
	require.NoError(t, err)
	return store
}

func TestWrite_DOT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	counts, err := Write(context.Background(), seedStore(t), &buf, FormatDOT)
	require.NoError(t, err)

	assert.Equal(t, Counts{Nodes: 2, Edges: 1}, counts)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph CallGraph {\n  rankdir=LR;\n  node [shape=box];\n"))
	assert.Contains(t, out, `"id-main" [label="main\nmain.go"];`)
	assert.Contains(t, out, `"id-run" [label="Server.run\nrun.go"];`)
	assert.Equal(t, 1, strings.Count(out, `"id-main" -> "id-run";`))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	counts, err := Write(context.Background(), seedStore(t), &buf, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, Counts{Nodes: 2, Edges: 3}, counts)

	var doc struct {
		Nodes []jsonNode `json:"nodes"`
		Edges []jsonEdge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 3)

	var unresolved int
	for _, e := range doc.Edges {
		if e.CalleeID == nil {
			unresolved++
		}
	}
	assert.Equal(t, 1, unresolved)
}

func TestWrite_EmptyStore(t *testing.T) {
	t.Parallel()

	store := storage.NewTestStore(t)

	var dot bytes.Buffer
	counts, err := Write(context.Background(), store, &dot, FormatDOT)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
	assert.Contains(t, dot.String(), "digraph CallGraph {")

	var js bytes.Buffer
	_, err = Write(context.Background(), store, &js, FormatJSON)
	require.NoError(t, err)
	var doc map[string][]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &doc))
	assert.Empty(t, doc["nodes"])
	assert.Empty(t, doc["edges"])
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("graphml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Write(context.Background(), storage.NewTestStore(t), &bytes.Buffer{}, "svg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
