package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"KhiphopPipeline/internal/app"
	"KhiphopPipeline/internal/config"
	"KhiphopPipeline/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "khiphop",
	Short: "Collect r/khiphop posts, enrich them and stage them for WordPress",
	Long: `khiphop pulls new posts from the r/khiphop feed, skips ones it has already seen,
enriches music posts with Spotify metadata and news posts with article text or an
LLM summary, and stages the results until they are published to WordPress.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults to $KHIPHOP_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func loadConfig() config.Config {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func newLogger(cfg config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return logger
}

// withApp builds the application, hands it to fn and closes it afterwards.
func withApp(ctx context.Context, fn func(*app.Application, *slog.Logger) error) error {
	cfg := loadConfig()
	logger := newLogger(cfg)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()
	return fn(application, logger)
}
