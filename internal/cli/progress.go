package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mvp-joe/project-callgraph/internal/indexer"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter implements progress reporting with progress bars.
type CLIProgressReporter struct {
	quiet     bool
	out       io.Writer
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		out:       out,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	log.Printf("Found %s source files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnPassStart(pass indexer.Pass, totalFiles int) {
	if c.quiet {
		return
	}
	// Finish any existing progress bar
	if c.bar != nil {
		c.bar.Finish()
	}

	description := "Extracting definitions"
	if pass == indexer.PassCalls {
		description = "Resolving calls"
	}

	c.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFilesCommitted(pass indexer.Pass, committed int) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		c.bar.Add(committed)
	}
}

func (c *CLIProgressReporter) OnComplete(report *indexer.Report) {
	if c.quiet {
		return
	}
	if c.bar != nil {
		c.bar.Finish()
		c.bar = nil
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Analysis complete: %s files in %.1fs (%.1f files/s)\n",
		formatNumber(report.FilesProcessed), report.DurationSeconds, report.FilesPerSecond())
	fmt.Fprintf(c.out, "  Symbols:    %s\n", formatNumber(report.SymbolsFound))
	fmt.Fprintf(c.out, "  Call edges: %s (%s resolved, %s unresolved)\n",
		formatNumber(report.EdgesFound), formatNumber(report.ResolvedEdges), formatNumber(report.UnresolvedEdges))
	if report.FilesFailed > 0 {
		fmt.Fprintf(c.out, "  Failed:     %s files\n", formatNumber(report.FilesFailed))
	}
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
