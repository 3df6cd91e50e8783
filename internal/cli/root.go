package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/mvp-joe/project-callgraph/internal/config"
	"github.com/mvp-joe/project-callgraph/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "callgraph",
	Short: "Callgraph - multi-language static call graph analyzer",
	Long: `Callgraph parses Python, C, C++, Java, Rust, JavaScript, TypeScript and Go
sources with tree-sitter, links call sites to definitions by name, and answers
caller, callee, call chain and full call path queries from a SQLite store.

Typical workflow:
  callgraph analyze ./src
  callgraph query handleRequest --callers --callees
  callgraph query handleRequest --full-path`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .callgraph/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is .callgraph/callgraph.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// loadConfig reads the project config for rootDir, or the --config file.
func loadConfig(rootDir string) (*config.Config, error) {
	loader := config.NewLoader(rootDir)
	if cfgFile != "" {
		loader = config.NewFileLoader(rootDir, cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Using database: %s\n", resolveDBPath(cfg, rootDir))
	}
	return cfg, nil
}

// resolveDBPath prefers --db over the configured path.
func resolveDBPath(cfg *config.Config, rootDir string) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DatabasePath(rootDir)
}

// openProject loads config for the current directory and opens its store.
func openProject() (*config.Config, *storage.Store, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(resolveDBPath(cfg, rootDir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, nil
}
