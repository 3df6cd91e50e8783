package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mvp-joe/project-callgraph/internal/config"
	"github.com/mvp-joe/project-callgraph/internal/export"
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/spf13/cobra"
)

type exportFlags struct {
	format string
	output string
	focus  string
	depth  int
}

var exportOpts exportFlags

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the call graph as Graphviz DOT or JSON",
	Long: `Export writes the whole call graph, or the neighbourhood of one name.

The full export streams rows from the database. With --focus, only the
definitions of the name plus callers and callees within --depth are drawn.

Examples:
  callgraph export --output graph.dot
  callgraph export --format json --output graph.json
  callgraph export --focus handleRequest --depth 2 | dot -Tsvg > focus.svg
`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.format, "format", "dot", "Output format: dot or json")
	f.StringVarP(&exportOpts.output, "output", "o", "", "Output file (default stdout)")
	f.StringVar(&exportOpts.focus, "focus", "", "Only export the neighbourhood of this name (DOT only)")
	f.IntVar(&exportOpts.depth, "depth", 2, "Neighbourhood depth for --focus")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, store, err := openProject()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if exportOpts.output != "" {
		f, err := os.Create(exportOpts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := exportGraph(cmd.Context(), out, store, cfg, exportOpts); err != nil {
		return err
	}
	if exportOpts.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Graph exported to %s\n", exportOpts.output)
	}
	return nil
}

func exportGraph(ctx context.Context, out io.Writer, store *storage.Store, cfg *config.Config, flags exportFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := export.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	if flags.focus == "" {
		_, err := export.Write(ctx, store, out, format)
		return err
	}

	if format != export.FormatDOT {
		return fmt.Errorf("%w: --focus supports dot only", export.ErrUnsupportedFormat)
	}
	searcher, err := graph.NewSearcher(store, cfg.SearcherOptions(nil)...)
	if err != nil {
		return err
	}
	defer searcher.Close()

	sg, err := searcher.Subgraph(ctx, flags.focus, flags.depth)
	if err != nil {
		return err
	}
	return sg.WriteDOT(out)
}
