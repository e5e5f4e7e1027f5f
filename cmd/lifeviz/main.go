// Package main provides the lifeviz CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vizwizards/lifeviz/internal/config"
	"github.com/vizwizards/lifeviz/internal/dataset"
	"github.com/vizwizards/lifeviz/internal/pipeline"
	"github.com/vizwizards/lifeviz/internal/reconcile"
	"github.com/vizwizards/lifeviz/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging
var verbose bool

func main() {
	// A missing .env is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lifeviz",
	Short: "Life expectancy and CO2 charts rendered as SVG",
	Long: `lifeviz loads WHO life expectancy, OWID CO2, continent and population
datasets and renders them as interactive SVG charts.

Core features:
  - Import datasets into a JSONL observation log with an ephemeral SQLite index
  - Render any chart kind to SVG or a standalone HTML page
  - Serve the charts and the read API over HTTP
  - Derive summary tables (sex ratios, decade averages, regional averages)

All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(false))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.Version = Version
}

// newLogger returns the stderr logger. Pipeline diagnostics are logged at
// warn level, so they stay visible without --verbose.
func newLogger(asJSON bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// mustFindProject finds the project root, exits on error.
func mustFindProject() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	root, err := config.ResolveProject(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// newFetcher builds a fetcher from the project's fetch settings.
func newFetcher(root string, cfg *config.Config) *dataset.Fetcher {
	return dataset.NewFetcher(
		dataset.WithDataDir(cfg.ResolveDataDir(root)),
		dataset.WithTimeout(cfg.Fetch.Timeout),
		dataset.WithRateLimit(cfg.Fetch.RequestsPerSecond),
		dataset.WithLogger(slog.Default()))
}

// newLoader returns a caching loader over the project's datasets.
func newLoader(root string, cfg *config.Config) *pipeline.Cache {
	return pipeline.NewCache(&pipeline.SourceLoader{
		Fetcher: newFetcher(root, cfg),
		Sources: cfg.Sources(),
	})
}

// newNames builds the reconciliation table with the project's extra variants.
func newNames(cfg *config.Config) *reconcile.Table {
	return reconcile.New(cfg.Reconcile)
}
