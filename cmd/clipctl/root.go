package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
)

var Version = "0.1.0"

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "clipctl",
	Short: "Cut clips out of YouTube videos from the command line",
	Long: `clipctl runs the ytclipper pipeline locally.

Source videos are downloaded once and cached on disk; the cache index is kept
in SQLite unless a config file selects another database.

Features:
  - Create clips from a YouTube URL and a time range
  - Inspect and evict cached source videos
  - Remove orphaned clip files`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("clipctl version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline activity to stderr")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file when given. Without one the CLI uses
// SQLite under the work directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		cfg.Database.Driver = "sqlite"
	}
	if dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func newLogger() (*logging.Logger, error) {
	if !verbose {
		return logging.Nop(), nil
	}
	return logging.NewConsoleLogger()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
