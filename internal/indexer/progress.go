package indexer

// ProgressReporter provides callbacks for reporting ingestion progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks are invoked from the orchestrator goroutine only.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnPassStart is called before a pass processes its files.
	OnPassStart(pass Pass, totalFiles int)

	// OnFilesCommitted is called after each committed batch.
	OnFilesCommitted(pass Pass, committed int)

	// OnComplete is called when ingestion completes successfully.
	OnComplete(report *Report)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                     {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)         {}
func (n *NoOpProgressReporter) OnPassStart(pass Pass, totalFiles int) {}
func (n *NoOpProgressReporter) OnFilesCommitted(pass Pass, committed int) {
}
func (n *NoOpProgressReporter) OnComplete(report *Report) {}
