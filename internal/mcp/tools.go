package mcp

// Implementation Plan:
// 1. AddCallgraph*Tool - composable tool registration functions
// 2. create*Handler - handler factories that capture the engine or store
// 3. Parse arguments, clamp numeric limits
// 4. Return results as JSON text (mcp-go convention)
// 5. Query failures caused by the request become tool errors, not system errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/storage"
)

// QueryEngine is the subset of graph.Searcher the query tool needs.
type QueryEngine interface {
	GetCallers(ctx context.Context, name string) ([]graph.CallerInfo, error)
	GetCallees(ctx context.Context, name string) ([]graph.CalleeInfo, error)
	GetCallChain(ctx context.Context, name string, maxDepth int) (*graph.ChainResult, error)
	GetFullCallPaths(ctx context.Context, name string, maxDepth int) (*graph.FullPathResult, error)
}

// SymbolStore is the subset of storage.Store the search and stats tools need.
type SymbolStore interface {
	SearchSymbols(ctx context.Context, pattern string, limit int) ([]storage.Symbol, error)
	GetStatistics(ctx context.Context) (*storage.Statistics, error)
}

// QueryDefaults are the depths used when a request omits "depth".
type QueryDefaults struct {
	ChainDepth    int
	FullPathDepth int
}

// Query operations.
const (
	OperationCallers  = "callers"
	OperationCallees  = "callees"
	OperationChain    = "chain"
	OperationFullPath = "full_path"
)

// QueryResponse is the JSON body of a callgraph_query result.
type QueryResponse struct {
	Operation string                `json:"operation"`
	Name      string                `json:"name"`
	Callers   []graph.CallerInfo    `json:"callers,omitempty"`
	Callees   []graph.CalleeInfo    `json:"callees,omitempty"`
	Chains    *graph.ChainResult    `json:"chains,omitempty"`
	FullPaths *graph.FullPathResult `json:"full_paths,omitempty"`
	Total     int                   `json:"total"`
}

// AddCallgraphQueryTool registers the callgraph_query tool with an MCP server.
func AddCallgraphQueryTool(s *server.MCPServer, engine QueryEngine, defaults QueryDefaults) {
	tool := mcp.NewTool(
		"callgraph_query",
		mcp.WithDescription("Query the static call graph of the analyzed project. Operations: callers (who calls this function), callees (what it calls, including external functions), chain (downward call chains up to a depth), full_path (every entry-point-to-leaf path passing through the function)."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of 'callers', 'callees', 'chain', 'full_path'")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Bare function or method name, e.g. 'process' or 'handleRequest'")),
		mcp.WithNumber("depth",
			mcp.Description(fmt.Sprintf("Depth for chain and full_path (0-%d)", graph.MaxDepth))),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createQueryHandler(engine, defaults))
}

// createQueryHandler creates the handler function for callgraph_query.
func createQueryHandler(engine QueryEngine, defaults QueryDefaults) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := toolArguments(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		operation, err := args.str("operation", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := args.str("name", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp := QueryResponse{Operation: operation, Name: name}
		switch operation {
		case OperationCallers:
			resp.Callers, err = engine.GetCallers(ctx, name)
			resp.Total = len(resp.Callers)
		case OperationCallees:
			resp.Callees, err = engine.GetCallees(ctx, name)
			resp.Total = len(resp.Callees)
		case OperationChain:
			depth := args.clampedInt("depth", defaults.ChainDepth, 0, graph.MaxDepth)
			resp.Chains, err = engine.GetCallChain(ctx, name, depth)
			if resp.Chains != nil {
				resp.Total = len(resp.Chains.Paths)
			}
		case OperationFullPath:
			depth := args.clampedInt("depth", defaults.FullPathDepth, 0, graph.MaxDepth)
			resp.FullPaths, err = engine.GetFullCallPaths(ctx, name, depth)
			if resp.FullPaths != nil {
				resp.Total = len(resp.FullPaths.Paths)
			}
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: callers, callees, chain, full_path)", operation)), nil
		}
		if errors.Is(err, graph.ErrGenerationNotReady) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return nil, fmt.Errorf("callgraph query failed: %w", err)
		}

		return jsonResult(resp)
	}
}

// SearchResult is one symbol in a callgraph_search response.
type SearchResult struct {
	Name      string `json:"name"`
	Qualified string `json:"qualified_name"`
	Kind      string `json:"kind"`
	Language  string `json:"language"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Signature string `json:"signature"`
}

// AddCallgraphSearchTool registers the callgraph_search tool with an MCP server.
func AddCallgraphSearchTool(s *server.MCPServer, store SymbolStore) {
	tool := mcp.NewTool(
		"callgraph_search",
		mcp.WithDescription("Find functions, methods and constructors whose name contains a substring. Use it to discover exact names before calling callgraph_query."),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Substring to look for in symbol names")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-200, default: 50)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createSearchHandler(store))
}

func createSearchHandler(store SymbolStore) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := toolArguments(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		pattern, err := args.str("pattern", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := args.clampedInt("limit", 50, 1, 200)

		symbols, err := store.SearchSymbols(ctx, pattern, limit)
		if err != nil {
			return nil, fmt.Errorf("symbol search failed: %w", err)
		}

		results := make([]SearchResult, len(symbols))
		for i, sym := range symbols {
			results[i] = SearchResult{
				Name:      sym.Name,
				Qualified: sym.QualifiedName(),
				Kind:      sym.Kind,
				Language:  sym.Language,
				File:      sym.File,
				Line:      sym.StartLine,
				Signature: sym.Signature,
			}
		}
		return jsonResult(map[string]interface{}{
			"results": results,
			"total":   len(results),
		})
	}
}

// AddCallgraphStatsTool registers the callgraph_stats tool with an MCP server.
func AddCallgraphStatsTool(s *server.MCPServer, store SymbolStore) {
	tool := mcp.NewTool(
		"callgraph_stats",
		mcp.WithDescription("Report symbol and call edge counts per language, and whether the index is ready."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createStatsHandler(store))
}

func createStatsHandler(store SymbolStore) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := store.GetStatistics(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load statistics: %w", err)
		}
		return jsonResult(map[string]interface{}{
			"generation":        stats.Generation.State,
			"generation_id":     stats.Generation.ID,
			"files":             stats.TotalFiles,
			"symbols":           stats.TotalSymbols,
			"functions":         stats.TotalFunctions,
			"methods":           stats.TotalMethods,
			"constructors":      stats.TotalCtors,
			"edges":             stats.TotalEdges,
			"resolved_edges":    stats.ResolvedEdges,
			"unresolved_edges":  stats.UnresolvedEdges,
			"by_kind":           stats.ByKind,
			"by_language":       stats.ByLanguage,
			"edges_by_language": stats.EdgesByLanguage,
		})
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
