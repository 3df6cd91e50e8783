package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/project-callgraph/internal/graph"
)

var (
	// ErrEmptyDatabasePath indicates a missing database path
	ErrEmptyDatabasePath = errors.New("empty database path")

	// ErrInvalidPolicy indicates an unsupported resolver policy
	ErrInvalidPolicy = errors.New("invalid resolver policy")

	// ErrInvalidWorkers indicates a negative worker cap
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidBatchSize indicates a non-positive batch size
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInvalidDepth indicates a query depth outside 0..graph.MaxDepth
	ErrInvalidDepth = errors.New("invalid query depth")

	// ErrInvalidQueryLimits indicates invalid path or cache limits
	ErrInvalidQueryLimits = errors.New("invalid query limits")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Database.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: database.path is required", ErrEmptyDatabasePath))
	}

	if err := validateAnalysis(&cfg.Analysis); err != nil {
		errs = append(errs, err)
	}

	if _, err := graph.ParsePolicy(cfg.Resolver.Policy); err != nil {
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'",
			ErrInvalidPolicy, graph.PolicyAll, graph.PolicyCanonical, cfg.Resolver.Policy))
	}

	if err := validateQuery(&cfg.Query); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateAnalysis(cfg *AnalysisConfig) error {
	var errs []error

	if cfg.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("%w: max_workers cannot be negative, got %d", ErrInvalidWorkers, cfg.MaxWorkers))
	}

	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}

	return joinErrors(errs)
}

func validateQuery(cfg *QueryConfig) error {
	var errs []error

	if cfg.DefaultDepth < 0 || cfg.DefaultDepth > graph.MaxDepth {
		errs = append(errs, fmt.Errorf("%w: default_depth must be between 0 and %d, got %d", ErrInvalidDepth, graph.MaxDepth, cfg.DefaultDepth))
	}

	if cfg.MaxDepth < 0 || cfg.MaxDepth > graph.MaxDepth {
		errs = append(errs, fmt.Errorf("%w: max_depth must be between 0 and %d, got %d", ErrInvalidDepth, graph.MaxDepth, cfg.MaxDepth))
	}

	if cfg.MaxPaths <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_paths must be positive, got %d", ErrInvalidQueryLimits, cfg.MaxPaths))
	}

	if cfg.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidQueryLimits, cfg.CacheSize))
	}

	return joinErrors(errs)
}

// validationErrors keeps every failure reachable through errors.Is.
type validationErrors []error

func (v validationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (v validationErrors) Unwrap() []error {
	return v
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return validationErrors(errs)
}
