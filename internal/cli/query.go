package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mvp-joe/project-callgraph/internal/config"
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/spf13/cobra"
)

type queryFlags struct {
	callers  bool
	callees  bool
	chain    bool
	fullPath bool
	depth    int
	maxPaths int
	asJSON   bool
}

var queryOpts queryFlags

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Query callers, callees and call paths of a function",
	Long: `Query looks up every definition named <name> and reports the requested views.
With no view flags, callers and callees are shown.

Examples:
  # Who calls process and what does it call?
  callgraph query process

  # Downward call chains, three levels deep
  callgraph query main --chain --depth 3

  # Every entry-point-to-leaf path through validate, as JSON
  callgraph query validate --full-path --json
`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	f := queryCmd.Flags()
	f.BoolVar(&queryOpts.callers, "callers", false, "Show direct callers")
	f.BoolVar(&queryOpts.callees, "callees", false, "Show direct callees")
	f.BoolVar(&queryOpts.chain, "chain", false, "Show downward call chains")
	f.BoolVar(&queryOpts.fullPath, "full-path", false, "Show complete entry-to-leaf paths through the name")
	f.IntVar(&queryOpts.depth, "depth", -1, "Depth for --chain and --full-path (default from config)")
	f.IntVar(&queryOpts.maxPaths, "max-paths", 0, "Maximum full paths to return (default from config)")
	f.BoolVar(&queryOpts.asJSON, "json", false, "Output JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, store, err := openProject()
	if err != nil {
		return err
	}
	defer store.Close()

	if queryOpts.maxPaths > 0 {
		cfg.Query.MaxPaths = queryOpts.maxPaths
	}
	searcher, err := graph.NewSearcher(store, cfg.SearcherOptions(store)...)
	if err != nil {
		return err
	}
	defer searcher.Close()

	return queryName(cmd.Context(), cmd.OutOrStdout(), searcher, cfg, args[0], queryOpts)
}

// queryResult is the JSON shape of a query; views not requested are omitted.
type queryResult struct {
	Name      string                `json:"name"`
	Callers   []graph.CallerInfo    `json:"callers,omitempty"`
	Callees   []graph.CalleeInfo    `json:"callees,omitempty"`
	Chains    *graph.ChainResult    `json:"chains,omitempty"`
	FullPaths *graph.FullPathResult `json:"full_paths,omitempty"`
}

// queryName runs the selected views for name and writes them to out.
func queryName(ctx context.Context, out io.Writer, s *graph.Searcher, cfg *config.Config, name string, flags queryFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !flags.callers && !flags.callees && !flags.chain && !flags.fullPath {
		flags.callers, flags.callees = true, true
	}

	res := queryResult{Name: name}
	var err error

	if flags.callers {
		if res.Callers, err = s.GetCallers(ctx, name); err != nil {
			return err
		}
	}
	if flags.callees {
		if res.Callees, err = s.GetCallees(ctx, name); err != nil {
			return err
		}
	}
	if flags.chain {
		depth := cfg.Query.DefaultDepth
		if flags.depth >= 0 {
			depth = flags.depth
		}
		if res.Chains, err = s.GetCallChain(ctx, name, depth); err != nil {
			return err
		}
	}
	if flags.fullPath {
		depth := cfg.Query.MaxDepth
		if flags.depth >= 0 {
			depth = flags.depth
		}
		if res.FullPaths, err = s.GetFullCallPaths(ctx, name, depth); err != nil {
			return err
		}
	}

	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if flags.callers {
		fmt.Fprintf(out, "Callers of %s (%d):\n", name, len(res.Callers))
		for _, c := range res.Callers {
			fmt.Fprintf(out, "  %-30s %s:%d  (%d call sites)\n", c.Name, c.File, c.Line, c.CallCount)
		}
		fmt.Fprintln(out)
	}
	if flags.callees {
		fmt.Fprintf(out, "Callees of %s (%d):\n", name, len(res.Callees))
		for _, c := range res.Callees {
			location := graph.ExternalFile
			if !c.External {
				location = fmt.Sprintf("%s:%d", c.File, c.Line)
			}
			fmt.Fprintf(out, "  %-30s %s  (%d call sites)\n", c.Name, location, c.CallCount)
		}
		fmt.Fprintln(out)
	}
	if res.Chains != nil {
		cached := ""
		if res.Chains.Cached {
			cached = ", cached"
		}
		fmt.Fprintf(out, "Call chains from %s (depth %d%s, %d paths):\n", name, res.Chains.MaxDepth, cached, len(res.Chains.Paths))
		for _, p := range res.Chains.Paths {
			writePath(out, p)
		}
		fmt.Fprintln(out)
	}
	if res.FullPaths != nil {
		fp := res.FullPaths
		fmt.Fprintf(out, "Full call paths through %s (depth %d, %d paths", name, fp.MaxDepth, len(fp.Paths))
		if fp.Truncated {
			fmt.Fprint(out, ", truncated")
		}
		fmt.Fprintln(out, "):")
		for _, p := range fp.Paths {
			writePath(out, p)
		}
		fmt.Fprintf(out, "  [%d entry paths, %d leaf paths, %d raw, %d unique, %s]\n",
			fp.Stats.EntryPaths, fp.Stats.LeafPaths, fp.Stats.RawPathCount, fp.Stats.UniquePathCount, fp.Stats.Elapsed)
	}
	return nil
}

func writePath(out io.Writer, p graph.CallPath) {
	suffix := ""
	if p.Cycle {
		suffix = "  [cycle]"
	}
	fmt.Fprintf(out, "  %s%s\n", p.Detailed(), suffix)
}
