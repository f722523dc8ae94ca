// Package main provides the resume_builder CLI: ATS scoring, keyword extraction,
// live re-scoring and the HTTP API server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// appConfig holds the loaded --config file. Flags override its values.
	appConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:   "resume_builder",
	Short: "ATS resume scoring",
	Long: `resume_builder scores resumes the way an applicant tracking system would: structure,
keyword coverage, content quality, readability and completeness.

Configuration can be loaded from a JSON file using --config. Command-line flags override config file values.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		appConfig = *loaded
	}
	if cmd.Flags().Changed("verbose") {
		appConfig.Verbose = verbose
	}

	slog.SetDefault(newLogger(appConfig.Verbose, os.Getenv("LOG_LEVEL")))
	if configPath != "" {
		slog.Debug("loaded config", slog.String("path", configPath))
	}
	return nil
}

// newLogger builds the process logger. --verbose wins over LOG_LEVEL.
func newLogger(verbose bool, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
