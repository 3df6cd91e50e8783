package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/project-callgraph/internal/graph"
	"github.com/mvp-joe/project-callgraph/internal/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .callgraph/config.yml and merges it with defaults
// - Environment variables override config file values and defaults
// - An explicit config file must exist
// - Load() returns error for malformed YAML and invalid values
// - Validate() rejects each invalid field and reports all of them together
// - ToIndexerOptions() and SearcherOptions() carry the settings through

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, Dir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, filepath.Join(".callgraph", "callgraph.db"), cfg.Database.Path)
	assert.Equal(t, indexer.DefaultExcludeDirs, cfg.Analysis.ExcludeDirs)
	assert.True(t, cfg.Analysis.RespectGitignore)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, 0, cfg.Analysis.MaxWorkers)
	assert.Equal(t, 100, cfg.Analysis.BatchSize)
	assert.Equal(t, "all", cfg.Resolver.Policy)
	assert.Equal(t, 5, cfg.Query.DefaultDepth)
	assert.Equal(t, 10, cfg.Query.MaxDepth)
	assert.Equal(t, 1000, cfg.Query.MaxPaths)
	assert.Equal(t, 10_000, cfg.Query.CacheSize)
	assert.True(t, cfg.Query.MaterializeChains)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.Database, cfg.Database)
	assert.Equal(t, expected.Analysis.ExcludeDirs, cfg.Analysis.ExcludeDirs)
	assert.Empty(t, cfg.Analysis.Ignore)
	assert.Equal(t, expected.Resolver, cfg.Resolver)
	assert.Equal(t, expected.Query, cfg.Query)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, `
database:
  path: /tmp/graph.db

analysis:
  exclude_dirs: ["third_party"]
  ignore:
    - "**/*_test.go"
  parallel: false
  batch_size: 25

resolver:
  policy: canonical

query:
  max_paths: 50
`)

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/graph.db", cfg.Database.Path)
	assert.Equal(t, []string{"third_party"}, cfg.Analysis.ExcludeDirs)
	assert.Equal(t, []string{"**/*_test.go"}, cfg.Analysis.Ignore)
	assert.False(t, cfg.Analysis.Parallel)
	assert.Equal(t, 25, cfg.Analysis.BatchSize)
	assert.Equal(t, "canonical", cfg.Resolver.Policy)
	assert.Equal(t, 50, cfg.Query.MaxPaths)

	// Unset keys keep their defaults
	assert.True(t, cfg.Analysis.RespectGitignore)
	assert.Equal(t, 5, cfg.Query.DefaultDepth)
	assert.Equal(t, 10_000, cfg.Query.CacheSize)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	root := t.TempDir()
	writeConfig(t, root, `
resolver:
  policy: canonical
query:
  default_depth: 3
`)

	t.Setenv("CALLGRAPH_RESOLVER_POLICY", "all")
	t.Setenv("CALLGRAPH_QUERY_DEFAULT_DEPTH", "7")
	t.Setenv("CALLGRAPH_ANALYSIS_PARALLEL", "false")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, "all", cfg.Resolver.Policy)
	assert.Equal(t, 7, cfg.Query.DefaultDepth)
	assert.False(t, cfg.Analysis.Parallel)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("CALLGRAPH_DATABASE_PATH", "custom.db")
	t.Setenv("CALLGRAPH_ANALYSIS_MAX_WORKERS", "3")
	t.Setenv("CALLGRAPH_QUERY_MATERIALIZE_CHAINS", "false")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "custom.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Analysis.MaxWorkers)
	assert.False(t, cfg.Query.MaterializeChains)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  max_depth: 20\n"), 0644))

	cfg, err := NewFileLoader(root, path).Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Query.MaxDepth)

	_, err = NewFileLoader(root, filepath.Join(root, "missing.yaml")).Load()
	assert.Error(t, err)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, `
resolver:
  policy: "unclosed quote
query: [
`)

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, `
resolver:
  policy: nearest
`)

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "  " }, ErrEmptyDatabasePath},
		{"unknown policy", func(c *Config) { c.Resolver.Policy = "first" }, ErrInvalidPolicy},
		{"negative workers", func(c *Config) { c.Analysis.MaxWorkers = -1 }, ErrInvalidWorkers},
		{"zero batch size", func(c *Config) { c.Analysis.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative depth", func(c *Config) { c.Query.DefaultDepth = -1 }, ErrInvalidDepth},
		{"depth over limit", func(c *Config) { c.Query.MaxDepth = graph.MaxDepth + 1 }, ErrInvalidDepth},
		{"zero max paths", func(c *Config) { c.Query.MaxPaths = 0 }, ErrInvalidQueryLimits},
		{"zero cache size", func(c *Config) { c.Query.CacheSize = 0 }, ErrInvalidQueryLimits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Database.Path = ""
	cfg.Analysis.BatchSize = -5
	cfg.Resolver.Policy = "bogus"
	cfg.Query.DefaultDepth = 99

	err := Validate(cfg)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrEmptyDatabasePath)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	errMsg := err.Error()
	assert.Contains(t, errMsg, "validation failed")
	assert.Contains(t, errMsg, "batch_size")
	assert.Contains(t, errMsg, "bogus")
}

func TestToIndexerOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analysis.Ignore = []string{"gen/**"}
	cfg.Analysis.MaxWorkers = 4
	cfg.Resolver.Policy = "canonical"

	opts := cfg.ToIndexerOptions("/src")
	assert.Equal(t, "/src", opts.RootDir)
	assert.Equal(t, []string{"gen/**"}, opts.IgnorePatterns)
	assert.Equal(t, 4, opts.MaxWorkers)
	assert.Equal(t, graph.PolicyCanonical, opts.Policy)
	assert.True(t, opts.Parallel)
	assert.True(t, opts.Clear)
	assert.True(t, opts.MaterializeChains)
	assert.Equal(t, cfg.Query.DefaultDepth, opts.ChainDepth)

	cfg.Query.MaterializeChains = false
	assert.False(t, cfg.ToIndexerOptions("/src").MaterializeChains)
}

func TestDatabasePath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, filepath.Join("/proj", ".callgraph", "callgraph.db"), cfg.DatabasePath("/proj"))

	cfg.Database.Path = "/var/db/graph.db"
	assert.Equal(t, "/var/db/graph.db", cfg.DatabasePath("/proj"))
}

func TestSearcherOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Len(t, cfg.SearcherOptions(nil), 2)

	cfg.Query.MaterializeChains = false
	assert.Len(t, cfg.SearcherOptions(nil), 2)
}
