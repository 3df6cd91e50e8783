package indexer

// Implementation Plan:
// 1. Fatal checks (root, discovery) before touching the store
// 2. BeginGeneration (building), clearing old rows in the same transaction
// 3. Definitions pass: extract every file, commit symbols
// 4. Barrier, then snapshot the name index
// 5. Calls pass: re-extract, resolve call sites, commit edges
// 6. Optionally materialize call chains from entry points
// 7. CompleteGeneration (ready) with the JSON report
//
// Workers never touch the store. They send self-contained batches to the
// orchestrator, which commits each batch in one transaction.

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer/parsers"
	"github.com/mvp-joe/project-callgraph/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Store is the write side of the symbol store used by ingestion.
type Store interface {
	BeginGeneration(ctx context.Context, rootPath string, clear bool) (string, error)
	CompleteGeneration(ctx context.Context, id string, report string) error
	InsertSymbols(ctx context.Context, symbols []storage.Symbol) error
	InsertCallEdges(ctx context.Context, edges []storage.CallEdge) (storage.EdgeWriteResult, error)
	NameIndex(ctx context.Context) (storage.NameIndex, error)
}

// chainStore is implemented by stores that can hold materialized call chains.
type chainStore interface {
	graph.Reader
	graph.ChainWriter
	EntryPointNames(ctx context.Context) ([]string, error)
}

// Indexer runs ingestion against a store.
type Indexer struct {
	store    Store
	progress ProgressReporter
	verbose  bool
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(ix *Indexer) {
		if p != nil {
			ix.progress = p
		}
	}
}

// WithVerbose logs every committed batch.
func WithVerbose(v bool) Option {
	return func(ix *Indexer) { ix.verbose = v }
}

// New creates an indexer writing to store.
func New(store Store, opts ...Option) *Indexer {
	ix := &Indexer{store: store, progress: &NoOpProgressReporter{}}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Ingest builds a fresh generation from opts.RootDir. Per-file failures are
// counted in the report; only the FatalRunError conditions and store write
// failures return an error. On cancellation, committed batches stay in the
// store and the generation remains building.
func (ix *Indexer) Ingest(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	root, err := statRoot(opts.RootDir)
	if err != nil {
		return nil, fatal(ErrRootNotFound, fmt.Errorf("%s: %w", opts.RootDir, err))
	}

	excludeDirs := opts.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = DefaultExcludeDirs
	}

	ix.progress.OnDiscoveryStart()
	discovery, err := NewFileDiscovery(root, excludeDirs, opts.IgnorePatterns, opts.RespectGitignore)
	if err != nil {
		return nil, fmt.Errorf("failed to configure file discovery: %w", err)
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	ix.progress.OnDiscoveryComplete(len(files))
	if len(files) == 0 {
		return nil, fatal(ErrNoEligibleFiles, fmt.Errorf("%s", root))
	}

	policy, err := graph.ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	workers := 1
	if opts.Parallel {
		workers = resolveWorkers(opts.Workers, opts.MaxWorkers, len(files))
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	genID, err := ix.store.BeginGeneration(ctx, root, opts.Clear)
	if err != nil {
		return nil, fatal(ErrStoreUnwritable, err)
	}

	report := &Report{
		GenerationID:    genID,
		RootDir:         root,
		FilesDiscovered: len(files),
		Parallel:        opts.Parallel,
		Workers:         workers,
		Policy:          string(policy),
	}
	log.Printf("[INGEST] %d files under %s (workers=%d, policy=%s)", len(files), root, workers, policy)

	// Pass 1: definitions.
	failed := make(map[string]bool)
	ix.progress.OnPassStart(PassDefinitions, len(files))
	err = ix.runPass(ctx, PassDefinitions, files, workers, batchSize,
		func(f SourceFile) fileOutcome {
			fe, err := extractFile(f)
			if err != nil {
				return fileOutcome{file: f.RelPath, err: err}
			}
			return fileOutcome{file: f.RelPath, symbols: toSymbols(f, fe)}
		},
		func(b *batch) error {
			if err := ix.store.InsertSymbols(ctx, b.symbols); err != nil {
				return err
			}
			report.SymbolsFound += len(b.symbols)
			for _, fe := range b.errors {
				failed[fe.File] = true
			}
			ix.recordBatch(report, PassDefinitions, b)
			return nil
		})
	if err != nil {
		return report, err
	}

	// Barrier: every symbol is committed before any call is resolved.
	index, err := ix.store.NameIndex(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load name index: %w", err)
	}
	resolver := graph.NewResolver(index, policy)

	remaining := make([]SourceFile, 0, len(files))
	for _, f := range files {
		if !failed[f.RelPath] {
			remaining = append(remaining, f)
		}
	}

	// Pass 2: calls.
	ix.progress.OnPassStart(PassCalls, len(remaining))
	err = ix.runPass(ctx, PassCalls, remaining, workers, batchSize,
		func(f SourceFile) fileOutcome {
			fe, err := extractFile(f)
			if err != nil {
				return fileOutcome{file: f.RelPath, err: err}
			}
			return fileOutcome{file: f.RelPath, edges: resolveCalls(resolver, f, fe)}
		},
		func(b *batch) error {
			res, err := ix.store.InsertCallEdges(ctx, b.edges)
			if err != nil {
				return err
			}
			report.EdgesFound += res.Inserted
			report.ResolvedEdges += res.Resolved
			report.DroppedEdges += res.Dropped
			ix.recordBatch(report, PassCalls, b)
			return nil
		})
	if err != nil {
		return report, err
	}
	report.UnresolvedEdges = report.EdgesFound - report.ResolvedEdges
	report.FilesProcessed = len(remaining) - countPass(report.Errors, PassCalls)
	report.FilesFailed = len(report.Errors)

	if opts.MaterializeChains {
		if err := ix.materializeChains(ctx, report, opts.ChainDepth); err != nil {
			return report, err
		}
	}
	report.DurationSeconds = time.Since(start).Seconds()

	encoded, err := json.Marshal(report)
	if err != nil {
		return report, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := ix.store.CompleteGeneration(ctx, genID, string(encoded)); err != nil {
		return report, fmt.Errorf("failed to complete generation: %w", err)
	}

	log.Printf("[INGEST] done in %.2fs: %d symbols, %d edges (%d resolved), %d files failed",
		report.DurationSeconds, report.SymbolsFound, report.EdgesFound, report.ResolvedEdges, report.FilesFailed)
	ix.progress.OnComplete(report)
	return report, nil
}

// materializeChains stores the call chains of every entry point so chain
// queries on this generation are answered from the store.
func (ix *Indexer) materializeChains(ctx context.Context, report *Report, depth int) error {
	cs, ok := ix.store.(chainStore)
	if !ok {
		log.Printf("Warning: store cannot hold call chains, skipping materialization")
		return nil
	}
	roots, err := cs.EntryPointNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entry points: %w", err)
	}
	n, err := graph.MaterializeChains(ctx, cs, cs, report.GenerationID, roots, depth)
	if err != nil {
		return fmt.Errorf("failed to materialize call chains: %w", err)
	}
	report.ChainsMaterialized = n
	if ix.verbose {
		log.Printf("[INGEST] materialized %d chains from %d entry points (depth %d)", n, len(roots), depth)
	}
	return nil
}

func (ix *Indexer) recordBatch(report *Report, pass Pass, b *batch) {
	for _, fe := range b.errors {
		log.Printf("Warning: skipping %s in %s pass: %s", fe.File, pass, fe.Error)
	}
	report.Errors = append(report.Errors, b.errors...)
	if ix.verbose {
		log.Printf("[INGEST] %s: committed %d files", pass, b.files)
	}
	ix.progress.OnFilesCommitted(pass, b.files)
}

func countPass(errs []FileError, pass Pass) int {
	n := 0
	for _, e := range errs {
		if e.Pass == pass {
			n++
		}
	}
	return n
}

// fileOutcome is the immutable result of processing one file in a pass.
type fileOutcome struct {
	file    string
	symbols []storage.Symbol
	edges   []storage.CallEdge
	err     error
}

// batch is a self-contained unit handed from a worker to the orchestrator.
type batch struct {
	pass    Pass
	files   int
	symbols []storage.Symbol
	edges   []storage.CallEdge
	errors  []FileError
}

func (b *batch) add(o fileOutcome) {
	b.files++
	if o.err != nil {
		b.errors = append(b.errors, FileError{File: o.file, Pass: b.pass, Error: o.err.Error()})
		return
	}
	b.symbols = append(b.symbols, o.symbols...)
	b.edges = append(b.edges, o.edges...)
}

// runPass processes files with the given number of workers. With one worker
// files are handled in order and each file is its own transaction. With more,
// files are split into contiguous partitions, one per worker, and every
// batch of up to batchSize files is committed by the caller's goroutine.
func (ix *Indexer) runPass(ctx context.Context, pass Pass, files []SourceFile, workers, batchSize int,
	work func(SourceFile) fileOutcome, commit func(*batch) error) error {

	if workers <= 1 {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &batch{pass: pass}
			b.add(work(f))
			if err := commit(b); err != nil {
				return fmt.Errorf("failed to commit %s batch: %w", pass, err)
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan *batch, workers)

	for _, part := range partition(files, workers) {
		g.Go(func() error {
			send := func(b *batch) error {
				select {
				case batches <- b:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			b := &batch{pass: pass}
			for _, f := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				b.add(work(f))
				if b.files >= batchSize {
					if err := send(b); err != nil {
						return err
					}
					b = &batch{pass: pass}
				}
			}
			if b.files > 0 {
				return send(b)
			}
			return nil
		})
	}

	var waitErr error
	done := make(chan struct{})
	go func() {
		waitErr = g.Wait()
		close(batches)
		close(done)
	}()

	var commitErr error
	for b := range batches {
		if commitErr != nil {
			continue // drain so workers can exit
		}
		if err := commit(b); err != nil {
			commitErr = fmt.Errorf("failed to commit %s batch: %w", pass, err)
			cancel()
		}
	}
	<-done

	if commitErr != nil {
		return commitErr
	}
	return waitErr
}

// partition splits files into n contiguous, nearly equal slices.
func partition(files []SourceFile, n int) [][]SourceFile {
	if n > len(files) {
		n = len(files)
	}
	parts := make([][]SourceFile, 0, n)
	size, extra := len(files)/n, len(files)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		parts = append(parts, files[start:end])
		start = end
	}
	return parts
}

// resolveWorkers picks NumCPU-1 (at least 1) unless configured, then applies
// the cap and never exceeds the number of files.
func resolveWorkers(configured, maxWorkers, files int) int {
	w := configured
	if w <= 0 {
		w = runtime.NumCPU() - 1
	}
	if maxWorkers > 0 && w > maxWorkers {
		w = maxWorkers
	}
	if w > files {
		w = files
	}
	return max(w, 1)
}

func extractFile(f SourceFile) (*parsers.FileExtraction, error) {
	source, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fe, err := parsers.Extract(f.RelPath, source)
	if err != nil {
		return nil, err
	}
	return fe, nil
}

// resolveCalls turns the call sites of one file into edges. Caller ids are
// recomputed the same way the definitions pass computed them.
func resolveCalls(r *graph.Resolver, f SourceFile, fe *parsers.FileExtraction) []storage.CallEdge {
	callers := toSymbols(f, fe)
	var edges []storage.CallEdge
	for _, site := range fe.Calls {
		edges = append(edges, r.Resolve(callers[site.Caller], site)...)
	}
	return edges
}
