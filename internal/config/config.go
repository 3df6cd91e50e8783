// Package config loads callgraph settings.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Command-line flags (applied by the CLI)
//  2. Environment variables (CALLGRAPH_*)
//  3. Project config (.callgraph/config.yml)
//  4. Built-in defaults
//
// Environment Variable Convention:
//   - Prefix: CALLGRAPH_
//   - Nested fields: Use underscores (CALLGRAPH_QUERY_MAX_PATHS)
package config

import (
	"path/filepath"

	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer"
)

// Dir is the per-project directory holding the config file and the default database.
const Dir = ".callgraph"

// Config represents the complete callgraph configuration.
// It can be loaded from .callgraph/config.yml with environment variable overrides.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Query    QueryConfig    `yaml:"query" mapstructure:"query"`
}

// DatabaseConfig locates the symbol store.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // relative paths resolve against the project root
}

// AnalysisConfig controls discovery and the ingestion pipeline.
type AnalysisConfig struct {
	ExcludeDirs      []string `yaml:"exclude_dirs" mapstructure:"exclude_dirs"`           // directory names never descended into
	Ignore           []string `yaml:"ignore" mapstructure:"ignore"`                       // glob patterns on root-relative paths
	RespectGitignore bool     `yaml:"respect_gitignore" mapstructure:"respect_gitignore"` // honor <root>/.gitignore
	Parallel         bool     `yaml:"parallel" mapstructure:"parallel"`
	MaxWorkers       int      `yaml:"max_workers" mapstructure:"max_workers"` // 0 means NumCPU-1
	BatchSize        int      `yaml:"batch_size" mapstructure:"batch_size"`   // files per committed batch
}

// ResolverConfig selects how duplicate definitions are bound.
type ResolverConfig struct {
	Policy string `yaml:"policy" mapstructure:"policy"` // "all" or "canonical"
}

// QueryConfig tunes the graph query engine.
type QueryConfig struct {
	DefaultDepth      int  `yaml:"default_depth" mapstructure:"default_depth"`           // call chain depth
	MaxDepth          int  `yaml:"max_depth" mapstructure:"max_depth"`                   // full call path depth
	MaxPaths          int  `yaml:"max_paths" mapstructure:"max_paths"`                   // full call path result cap
	CacheSize         int  `yaml:"cache_size" mapstructure:"cache_size"`                 // adjacency cache entries
	MaterializeChains bool `yaml:"materialize_chains" mapstructure:"materialize_chains"` // store call chains during analysis
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(Dir, "callgraph.db"),
		},
		Analysis: AnalysisConfig{
			ExcludeDirs:      append([]string(nil), indexer.DefaultExcludeDirs...),
			Ignore:           []string{},
			RespectGitignore: true,
			Parallel:         true,
			MaxWorkers:       0,
			BatchSize:        indexer.DefaultBatchSize,
		},
		Resolver: ResolverConfig{
			Policy: string(graph.DefaultPolicy),
		},
		Query: QueryConfig{
			DefaultDepth:      graph.DefaultChainDepth,
			MaxDepth:          graph.DefaultFullPathDepth,
			MaxPaths:          graph.DefaultMaxPaths,
			CacheSize:         graph.DefaultCacheSize,
			MaterializeChains: true,
		},
	}
}

// DatabasePath resolves the configured database path against rootDir.
func (c *Config) DatabasePath(rootDir string) string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(rootDir, c.Database.Path)
}
