package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mvp-joe/project-callgraph/internal/graph"
	callgraphmcp "github.com/mvp-joe/project-callgraph/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for call graph queries",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
query the call graph of the analyzed project.

The MCP server:
- Reads the SQLite database built by 'callgraph analyze'
- Provides callgraph_query, callgraph_search and callgraph_stats tools
- Communicates via stdio (standard MCP transport)

Example:
  callgraph mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, store, err := openProject()
	if err != nil {
		return err
	}
	defer store.Close()

	searcher, err := graph.NewSearcher(store, cfg.SearcherOptions(store)...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Close()

	// stdout carries the protocol, so startup info goes to stderr
	fmt.Fprintf(os.Stderr, "Callgraph MCP Server\n")
	if stats, err := store.GetStatistics(context.Background()); err == nil {
		fmt.Fprintf(os.Stderr, "Index: %s (%d symbols, %d edges)\n\n",
			stats.Generation.State, stats.TotalSymbols, stats.TotalEdges)
	}

	server := callgraphmcp.NewServer(searcher, store, callgraphmcp.QueryDefaults{
		ChainDepth:    cfg.Query.DefaultDepth,
		FullPathDepth: cfg.Query.MaxDepth,
	})
	return server.Serve(context.Background())
}
