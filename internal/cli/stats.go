package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call graph statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openProject()
		if err != nil {
			return err
		}
		defer store.Close()
		return printStats(cmd.Context(), cmd.OutOrStdout(), store)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStats(ctx context.Context, out io.Writer, store *storage.Store) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stats, err := store.GetStatistics(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Call Graph Statistics")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintf(out, "Generation:   %s", stats.Generation.State)
	if stats.Generation.ID != "" {
		fmt.Fprintf(out, " (%s)", stats.Generation.ID)
	}
	fmt.Fprintln(out)
	if stats.Generation.RootPath != "" {
		fmt.Fprintf(out, "Root:         %s\n", stats.Generation.RootPath)
	}
	if stats.Generation.CompletedAt != "" {
		fmt.Fprintf(out, "Completed:    %s\n", stats.Generation.CompletedAt)
	}
	fmt.Fprintf(out, "Files:        %s\n", formatNumber(stats.TotalFiles))
	fmt.Fprintf(out, "Symbols:      %s (%s functions, %s methods, %s constructors)\n",
		formatNumber(stats.TotalSymbols), formatNumber(stats.TotalFunctions),
		formatNumber(stats.TotalMethods), formatNumber(stats.TotalCtors))
	fmt.Fprintf(out, "Call edges:   %s (%s resolved, %s unresolved)\n",
		formatNumber(stats.TotalEdges), formatNumber(stats.ResolvedEdges), formatNumber(stats.UnresolvedEdges))

	if len(stats.ByLanguage) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "By language:")
		langs := make([]string, 0, len(stats.ByLanguage))
		for lang := range stats.ByLanguage {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			fmt.Fprintf(out, "  %-12s %8s symbols %8s edges\n", lang,
				formatNumber(stats.ByLanguage[lang]), formatNumber(stats.EdgesByLanguage[lang]))
		}
	}

	if len(stats.ByKind) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "By kind:")
		kinds := make([]string, 0, len(stats.ByKind))
		for kind := range stats.ByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(out, "  %-12s %8s\n", kind, formatNumber(stats.ByKind[kind]))
		}
	}
	return nil
}
