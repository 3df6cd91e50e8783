package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer"
	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for MCP tools:
// - callgraph_query answers callers, callees, chain and full_path as JSON
// - Unknown operations and missing arguments are tool errors, not system errors
// - A building generation is reported as a tool error
// - callgraph_search returns matching symbols with qualified names
// - callgraph_stats reports counts, counts per kind and generation state
// - NewServer builds a server around the engine and store

const calculatorSource = `def main():
    calculate(1, 2)

def calculate(a, b):
    add(a, b)
    multiply(a, b)
    print(a)

def add(a, b):
    return a + b

def multiply(a, b):
    return a * b
`

func analyzedStore(t *testing.T) (*storage.Store, *graph.Searcher) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "calc.py"), []byte(calculatorSource), 0644))

	store := storage.NewTestStore(t)
	_, err := indexer.New(store).Ingest(context.Background(), indexer.Options{RootDir: root})
	require.NoError(t, err)

	searcher, err := graph.NewSearcher(store)
	require.NoError(t, err)
	t.Cleanup(func() { searcher.Close() })
	return store, searcher
}

func callTool(t *testing.T, handler server.ToolHandlerFunc, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result, "should return result")
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return textContent.Text
}

var testDefaults = QueryDefaults{ChainDepth: graph.DefaultChainDepth, FullPathDepth: graph.DefaultFullPathDepth}

func TestQueryHandler_Callers(t *testing.T) {
	t.Parallel()

	_, searcher := analyzedStore(t)
	handler := createQueryHandler(searcher, testDefaults)

	result := callTool(t, handler, map[string]interface{}{"operation": "callers", "name": "add"})
	assert.False(t, result.IsError)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Callers, 1)
	assert.Equal(t, "calculate", resp.Callers[0].Name)
	assert.Equal(t, "calc.py", resp.Callers[0].File)
}

func TestQueryHandler_CalleesIncludeExternal(t *testing.T) {
	t.Parallel()

	_, searcher := analyzedStore(t)
	handler := createQueryHandler(searcher, testDefaults)

	result := callTool(t, handler, map[string]interface{}{"operation": "callees", "name": "calculate"})
	var resp QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))

	external := map[string]bool{}
	for _, c := range resp.Callees {
		external[c.Name] = c.External
	}
	assert.Equal(t, map[string]bool{"add": false, "multiply": false, "print": true}, external)
}

func TestQueryHandler_ChainAndFullPath(t *testing.T) {
	t.Parallel()

	_, searcher := analyzedStore(t)
	handler := createQueryHandler(searcher, testDefaults)

	result := callTool(t, handler, map[string]interface{}{"operation": "chain", "name": "main", "depth": float64(1)})
	var chain QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &chain))
	require.NotNil(t, chain.Chains)
	assert.Equal(t, 1, chain.Chains.MaxDepth)
	require.Len(t, chain.Chains.Paths, 1)
	assert.Equal(t, "main -> calculate", chain.Chains.Paths[0].String())

	result = callTool(t, handler, map[string]interface{}{"operation": "full_path", "name": "calculate"})
	var full QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &full))
	require.NotNil(t, full.FullPaths)
	assert.Equal(t, 2, full.Total)
	assert.False(t, full.FullPaths.Truncated)
}

func TestQueryHandler_DepthIsClamped(t *testing.T) {
	t.Parallel()

	_, searcher := analyzedStore(t)
	handler := createQueryHandler(searcher, testDefaults)

	result := callTool(t, handler, map[string]interface{}{"operation": "chain", "name": "main", "depth": float64(500)})
	var resp QueryResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, graph.MaxDepth, resp.Chains.MaxDepth)
}

func TestQueryHandler_InvalidRequests(t *testing.T) {
	t.Parallel()

	_, searcher := analyzedStore(t)
	handler := createQueryHandler(searcher, testDefaults)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing operation", map[string]interface{}{"name": "add"}, "operation parameter is required"},
		{"missing name", map[string]interface{}{"operation": "callers"}, "name parameter is required"},
		{"empty name", map[string]interface{}{"operation": "callers", "name": ""}, "name cannot be empty"},
		{"unknown operation", map[string]interface{}{"operation": "dependents", "name": "add"}, "invalid operation"},
		{"wrong type", map[string]interface{}{"operation": 7, "name": "add"}, "operation must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, tt.args)
			assert.True(t, result.IsError, "should be error result")
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestQueryHandler_GenerationBuilding(t *testing.T) {
	t.Parallel()

	store, searcher := analyzedStore(t)
	_, err := store.BeginGeneration(context.Background(), "/elsewhere", false)
	require.NoError(t, err)

	result := callTool(t, createQueryHandler(searcher, testDefaults), map[string]interface{}{"operation": "callers", "name": "add"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), graph.ErrGenerationNotReady.Error())
}

func TestSearchHandler(t *testing.T) {
	t.Parallel()

	store, _ := analyzedStore(t)
	handler := createSearchHandler(store)

	result := callTool(t, handler, map[string]interface{}{"pattern": "mult", "limit": float64(10)})
	assert.False(t, result.IsError)

	var resp struct {
		Results []SearchResult `json:"results"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "multiply", resp.Results[0].Name)
	assert.Equal(t, "python", resp.Results[0].Language)
	assert.Equal(t, 12, resp.Results[0].Line)

	result = callTool(t, handler, map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	store, _ := analyzedStore(t)
	result := callTool(t, createStatsHandler(store), nil)
	assert.False(t, result.IsError)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, storage.GenerationReady, resp["generation"])
	assert.Equal(t, float64(4), resp["symbols"])
	assert.Equal(t, float64(4), resp["edges"])
	assert.Equal(t, float64(1), resp["unresolved_edges"])
	assert.Equal(t, map[string]interface{}{"function": float64(4)}, resp["by_kind"])
}

func TestNewServer_RegistersTools(t *testing.T) {
	t.Parallel()

	store, searcher := analyzedStore(t)
	s := NewServer(searcher, store, testDefaults)
	require.NotNil(t, s)
	assert.NotNil(t, s.MCP())
}

func TestArguments(t *testing.T) {
	t.Parallel()

	_, err := toolArguments("not a map")
	assert.Error(t, err)

	args, err := toolArguments(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, args.clampedInt("depth", 7, 0, 10))

	args = arguments{"depth": float64(-3), "limit": "ten"}
	assert.Equal(t, 0, args.clampedInt("depth", 5, 0, 10))
	assert.Equal(t, 5, args.clampedInt("limit", 5, 1, 10))

	s, err := args.str("missing", false)
	require.NoError(t, err)
	assert.Empty(t, s)
}
