package config

import (
	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer"
)

// ToIndexerOptions converts a Config to indexer.Options.
// The rootDir parameter specifies the root directory of the codebase to analyze.
func (c *Config) ToIndexerOptions(rootDir string) indexer.Options {
	return indexer.Options{
		RootDir:          rootDir,
		ExcludeDirs:      c.Analysis.ExcludeDirs,
		IgnorePatterns:   c.Analysis.Ignore,
		RespectGitignore: c.Analysis.RespectGitignore,
		Parallel:         c.Analysis.Parallel,
		MaxWorkers:       c.Analysis.MaxWorkers,
		BatchSize:        c.Analysis.BatchSize,
		Policy:           graph.Policy(c.Resolver.Policy),
		Clear:            true,

		MaterializeChains: c.Query.MaterializeChains,
		ChainDepth:        c.Query.DefaultDepth,
	}
}

// SearcherOptions builds query engine options. chains serves the chains
// stored during analysis and is used only when materialization is enabled.
func (c *Config) SearcherOptions(chains graph.ChainReader) []graph.SearcherOption {
	opts := []graph.SearcherOption{
		graph.WithMaxPaths(c.Query.MaxPaths),
		graph.WithCacheSize(c.Query.CacheSize),
	}
	if c.Query.MaterializeChains && chains != nil {
		opts = append(opts, graph.WithChainStore(chains))
	}
	return opts
}
