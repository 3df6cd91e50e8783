package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/project-callgraph/internal/config"
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer"
	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/spf13/cobra"
)

// analyzeFlags are the analyze overrides applied on top of the config.
type analyzeFlags struct {
	exclude    []string
	ignore     []string
	sequential bool
	workers    int
	batchSize  int
	policy     string
	noClear    bool
	quiet      bool
}

var analyzeOpts analyzeFlags

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Build the call graph for a source tree",
	Long: `Analyze walks a source tree, extracts every function, method and constructor,
and links call sites to definitions by name. The result replaces the current
contents of the database unless --no-clear is given.

The analysis runs in two passes: definitions are committed for every file
before any call is resolved, so calls into files processed later still bind.

Examples:
  # Analyze the current directory
  callgraph analyze

  # Analyze a subtree, skipping generated code
  callgraph analyze ./src --ignore "**/*.pb.go" --exclude third_party

  # Single-threaded, one transaction per file
  callgraph analyze --sequential
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	f.StringSliceVar(&analyzeOpts.exclude, "exclude", nil, "Directory names to skip (replaces the configured list)")
	f.StringSliceVar(&analyzeOpts.ignore, "ignore", nil, "Glob patterns of files to ignore (added to the configured list)")
	f.BoolVar(&analyzeOpts.sequential, "sequential", false, "Process files one at a time")
	f.IntVar(&analyzeOpts.workers, "workers", 0, "Number of parallel workers (default NumCPU-1)")
	f.IntVar(&analyzeOpts.batchSize, "batch-size", 0, "Files per committed batch in parallel mode")
	f.StringVar(&analyzeOpts.policy, "policy", "", "Resolver policy for duplicate names: all or canonical")
	f.BoolVar(&analyzeOpts.noClear, "no-clear", false, "Keep existing data instead of rebuilding from scratch")
	f.BoolVarP(&analyzeOpts.quiet, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling analysis...")
			cancel()
		case <-ctx.Done():
		}
	}()

	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	sourceDir := projectDir
	if len(args) == 1 {
		sourceDir = args[0]
	}

	cfg, err := loadConfig(projectDir)
	if err != nil {
		return err
	}

	store, err := storage.Open(resolveDBPath(cfg, projectDir))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	_, err = analyzeProject(ctx, cmd.OutOrStdout(), store, cfg, sourceDir, analyzeOpts)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("analysis cancelled")
	}
	return err
}

// analyzeProject applies flag overrides to cfg and runs ingestion into store.
func analyzeProject(ctx context.Context, out io.Writer, store *storage.Store, cfg *config.Config, sourceDir string, flags analyzeFlags) (*indexer.Report, error) {
	opts := cfg.ToIndexerOptions(sourceDir)
	if flags.exclude != nil {
		opts.ExcludeDirs = flags.exclude
	}
	opts.IgnorePatterns = append(append([]string(nil), opts.IgnorePatterns...), flags.ignore...)
	if flags.sequential {
		opts.Parallel = false
	}
	if flags.workers > 0 {
		opts.Workers = flags.workers
	}
	if flags.batchSize > 0 {
		opts.BatchSize = flags.batchSize
	}
	if flags.policy != "" {
		policy, err := graph.ParsePolicy(flags.policy)
		if err != nil {
			return nil, err
		}
		opts.Policy = policy
	}
	opts.Clear = !flags.noClear

	progress := NewCLIProgressReporter(out, flags.quiet)
	ix := indexer.New(store, indexer.WithProgress(progress), indexer.WithVerbose(verbose))

	report, err := ix.Ingest(ctx, opts)
	if err != nil {
		var fatalErr *indexer.FatalRunError
		if errors.As(err, &fatalErr) {
			return nil, fatalErr
		}
		return report, fmt.Errorf("analysis failed: %w", err)
	}

	if !flags.quiet && len(report.Errors) > 0 && verbose {
		for _, fe := range report.Errors {
			fmt.Fprintf(out, "  skipped %s (%s): %s\n", fe.File, fe.Pass, fe.Error)
		}
	}
	return report, nil
}
