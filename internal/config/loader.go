package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader loads an explicit config file instead of searching
// <rootDir>/.callgraph. A missing explicit file is an error.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CALLGRAPH_*)
// 2. Config file (.callgraph/config.yml or .callgraph/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("CALLGRAPH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CALLGRAPH_RESOLVER_POLICY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvVars binds the scalar keys so env vars apply even without a config file.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path")

	v.BindEnv("analysis.respect_gitignore")
	v.BindEnv("analysis.parallel")
	v.BindEnv("analysis.max_workers")
	v.BindEnv("analysis.batch_size")

	v.BindEnv("resolver.policy")

	v.BindEnv("query.default_depth")
	v.BindEnv("query.max_depth")
	v.BindEnv("query.max_paths")
	v.BindEnv("query.cache_size")
	v.BindEnv("query.materialize_chains")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("database.path", defaults.Database.Path)

	v.SetDefault("analysis.exclude_dirs", defaults.Analysis.ExcludeDirs)
	v.SetDefault("analysis.ignore", defaults.Analysis.Ignore)
	v.SetDefault("analysis.respect_gitignore", defaults.Analysis.RespectGitignore)
	v.SetDefault("analysis.parallel", defaults.Analysis.Parallel)
	v.SetDefault("analysis.max_workers", defaults.Analysis.MaxWorkers)
	v.SetDefault("analysis.batch_size", defaults.Analysis.BatchSize)

	v.SetDefault("resolver.policy", defaults.Resolver.Policy)

	v.SetDefault("query.default_depth", defaults.Query.DefaultDepth)
	v.SetDefault("query.max_depth", defaults.Query.MaxDepth)
	v.SetDefault("query.max_paths", defaults.Query.MaxPaths)
	v.SetDefault("query.cache_size", defaults.Query.CacheSize)
	v.SetDefault("query.materialize_chains", defaults.Query.MaterializeChains)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
