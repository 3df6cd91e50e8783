package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/spf13/cobra"
)

var searchLimit int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Find symbols whose name contains a substring",
	Long: `Search lists functions, methods and constructors whose name contains <pattern>,
ordered by name, file and position.

Example:
  callgraph search parse --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openProject()
		if err != nil {
			return err
		}
		defer store.Close()
		return searchSymbols(cmd.Context(), cmd.OutOrStdout(), store, args[0], searchLimit)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "Maximum number of results")
}

func searchSymbols(ctx context.Context, out io.Writer, store *storage.Store, pattern string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	symbols, err := store.SearchSymbols(ctx, pattern, limit)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		fmt.Fprintf(out, "No symbols matching %q\n", pattern)
		return nil
	}
	for _, s := range symbols {
		fmt.Fprintf(out, "%-40s %-12s %-11s %s:%d\n", s.QualifiedName(), s.Language, s.Kind, s.File, s.StartLine)
	}
	return nil
}
