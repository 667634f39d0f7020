// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-summarizer CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-summarizer/internal/config"
	"github.com/pdiddy/pdf-summarizer/internal/secrets"
	"github.com/pdiddy/pdf-summarizer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is the configuration loaded before every command runs.
	appConfig types.Config

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger = slog.Default()
)

// rootCmd summarizes a PDF when given a path or URL and hosts the
// maintenance subcommands.
var rootCmd = &cobra.Command{
	Use:   "pdf-summarizer <pdf-path|url>",
	Short: "Hierarchical PDF summarizer backed by Groq or Ollama",
	Long: `pdf-summarizer extracts the text of a PDF, splits it into chunks, groups the
chunks into meta-sections, summarizes each meta-section with an LLM, and
combines those summaries into one Markdown document summary.

The argument is a local PDF path or an http(s) URL. URLs are downloaded to
the input directory first. Runs are recorded in a local SQLite history and
LLM responses are cached there so repeated runs are cheap.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if err := setupLogging(level); err != nil {
			return err
		}

		loaded, err := secrets.LoadDotEnv(".env")
		if err != nil {
			return err
		}
		if len(loaded) > 0 {
			logger.Debug("loaded environment files", "files", loaded)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgFile, logger)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
	RunE: runSummarize,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-summarizer.yaml, ./config/config.yaml or ~/.config/pdf-summarizer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	addSummarizeFlags(rootCmd)
}

// setupLogging installs a text handler on stderr at the given level.
func setupLogging(level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "", "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: use debug, info, warn or error", level)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
