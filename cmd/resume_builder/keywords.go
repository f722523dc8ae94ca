package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Extract ATS keywords from a job description",
	Long: `Extract the keywords an ATS would look for from a job description file or URL.

With --llm the description is sent to Gemini; any failure falls back to local extraction.`,
	Args: cobra.NoArgs,
	RunE: runKeywords,
}

var (
	keywordsJob  jobFlags
	keywordsJSON bool
)

func init() {
	keywordsJob.register(keywordsCmd)
	keywordsCmd.Flags().BoolVar(&keywordsJSON, "json", false, "Print keywords as JSON")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := appConfig
	if err := keywordsJob.apply(cmd, &cfg); err != nil {
		return err
	}
	if cfg.Job == "" && cfg.JobURL == "" && len(cfg.Keywords) == 0 {
		return fmt.Errorf("a job description is required (use --jd or --jd-url)")
	}

	result, err := resolveKeywords(ctx, &cfg)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("job description is empty")
	}

	if keywordsJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintKeywords(result.Keywords, result.Source)
	return nil
}
