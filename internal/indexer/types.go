package indexer

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/project-callgraph/internal/graph"
)

// DefaultBatchSize is the number of files per committed batch in parallel mode.
const DefaultBatchSize = 100

var (
	// ErrRootNotFound means the root path is missing or not a directory.
	ErrRootNotFound = errors.New("root path not found")

	// ErrNoEligibleFiles means discovery found nothing any language variant accepts.
	ErrNoEligibleFiles = errors.New("no eligible source files")

	// ErrStoreUnwritable means the store rejected the start of a new generation.
	ErrStoreUnwritable = errors.New("store is not writable")
)

// FatalRunError aborts a run before anything is written.
type FatalRunError struct {
	Err error
}

func (e *FatalRunError) Error() string {
	return "ingestion aborted: " + e.Err.Error()
}

func (e *FatalRunError) Unwrap() error {
	return e.Err
}

func fatal(sentinel error, cause error) error {
	if cause == nil {
		return &FatalRunError{Err: sentinel}
	}
	return &FatalRunError{Err: fmt.Errorf("%w: %w", sentinel, cause)}
}

// Options configures one ingestion run.
type Options struct {
	RootDir          string
	ExcludeDirs      []string // nil means DefaultExcludeDirs
	IgnorePatterns   []string // gobwas/glob patterns on root-relative paths
	RespectGitignore bool

	Parallel   bool
	Workers    int // 0 picks NumCPU-1
	MaxWorkers int // upper bound on Workers, 0 for none
	BatchSize  int // files per batch in parallel mode, 0 for DefaultBatchSize

	Policy graph.Policy
	Clear  bool // wipe the store when the generation starts

	MaterializeChains bool // store call chains from every entry point
	ChainDepth        int  // depth of materialized chains
}

// FileError records a file skipped during a pass.
type FileError struct {
	File  string `json:"file"`
	Pass  Pass   `json:"pass"`
	Error string `json:"error"`
}

// Pass names one of the two extraction passes.
type Pass string

const (
	PassDefinitions Pass = "definitions"
	PassCalls       Pass = "calls"
)

// Report summarizes an ingestion run.
type Report struct {
	GenerationID       string      `json:"generation_id"`
	RootDir            string      `json:"root_dir"`
	FilesDiscovered    int         `json:"files_discovered"`
	FilesProcessed     int         `json:"files_processed"`
	FilesFailed        int         `json:"files_failed"`
	SymbolsFound       int         `json:"symbols_found"`
	EdgesFound         int         `json:"edges_found"`
	ResolvedEdges      int         `json:"resolved_edges"`
	UnresolvedEdges    int         `json:"unresolved_edges"`
	DroppedEdges       int         `json:"dropped_edges"`
	ChainsMaterialized int         `json:"chains_materialized,omitempty"`
	Errors             []FileError `json:"errors,omitempty"`
	Parallel           bool        `json:"parallel"`
	Workers            int         `json:"workers"`
	Policy             string      `json:"policy"`
	DurationSeconds    float64     `json:"duration_seconds"`
}

// FilesPerSecond is the processing throughput of the run.
func (r *Report) FilesPerSecond() float64 {
	if r.DurationSeconds <= 0 {
		return 0
	}
	return float64(r.FilesProcessed) / r.DurationSeconds
}
