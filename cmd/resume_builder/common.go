package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jdparser"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
)

// sourceFlag marks keywords given directly with --keywords or in the config file.
const sourceFlag = "flag"

// jobFlags are the job description flags shared by score, keywords and watch.
type jobFlags struct {
	job        string
	jobURL     string
	keywords   []string
	limit      int
	useLLM     bool
	useBrowser bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.job, "jd", "", "Path to job description text file (mutually exclusive with --jd-url)")
	cmd.Flags().StringVar(&f.jobURL, "jd-url", "", "URL to fetch the job description from (mutually exclusive with --jd)")
	cmd.Flags().StringSliceVarP(&f.keywords, "keywords", "k", nil, "Comma-separated job keywords (skips extraction)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of extracted keywords (default 20)")
	cmd.Flags().BoolVar(&f.useLLM, "llm", false, "Extract keywords with Gemini (falls back to local extraction)")
	cmd.Flags().BoolVar(&f.useBrowser, "browser", false, "Render JavaScript job pages in headless Chrome")
}

// apply overrides cfg with the flags the user actually set.
func (f *jobFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("jd") && flags.Changed("jd-url") {
		return fmt.Errorf("--jd and --jd-url are mutually exclusive")
	}
	if flags.Changed("jd") {
		cfg.Job, cfg.JobURL = f.job, ""
	}
	if flags.Changed("jd-url") {
		cfg.Job, cfg.JobURL = "", f.jobURL
	}
	if flags.Changed("keywords") {
		cfg.Keywords = f.keywords
	}
	if flags.Changed("limit") {
		cfg.KeywordLimit = f.limit
	}
	if flags.Changed("llm") {
		cfg.UseLLM = f.useLLM
	}
	if flags.Changed("browser") {
		cfg.UseBrowser = f.useBrowser
	}
	return cfg.Validate()
}

// readDocument loads a resume file, checking it against the document schema first.
func readDocument(path string) (*types.ResumeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume file: %w", err)
	}
	if err := schemas.ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var doc types.ResumeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse resume file %s: %w", path, err)
	}
	return &doc, nil
}

// resolveKeywords returns the job keywords described by cfg. It returns nil, nil
// when no job description source is configured.
func resolveKeywords(ctx context.Context, cfg *config.Config) (*jdparser.Result, error) {
	if len(cfg.Keywords) > 0 {
		return &jdparser.Result{Keywords: trimKeywords(cfg.Keywords), Source: sourceFlag}, nil
	}

	text, err := jobText(ctx, cfg)
	if err != nil || text == "" {
		return nil, err
	}

	var client llm.Client
	if cfg.UseLLM {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = llm.APIKeyFromEnv()
		}
		if apiKey == "" {
			return nil, fmt.Errorf("API key is required for --llm (set GEMINI_API_KEY or api_key in the config file)")
		}
		client, err = llm.NewClient(ctx, llm.ConfigFromEnv(), apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer client.Close() //nolint:errcheck
	}

	result, err := jdparser.NewParser(client, slog.Default()).Parse(ctx, text, cfg.KeywordLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to extract keywords: %w", err)
	}
	slog.Debug("extracted job keywords", slog.String("source", result.Source), slog.Int("count", len(result.Keywords)))
	return result, nil
}

// jobText reads the job description from a file or URL. An unset source yields "".
func jobText(ctx context.Context, cfg *config.Config) (string, error) {
	switch {
	case cfg.Job != "":
		data, err := os.ReadFile(cfg.Job)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		if len(data) == 0 {
			return "", &jdparser.InputError{Message: "job description file is empty"}
		}
		return string(data), nil
	case cfg.JobURL != "":
		opts := fetch.DefaultOptions()
		opts.UseBrowser = cfg.UseBrowser
		opts.Logger = slog.Default()
		result, err := fetch.JobDescription(ctx, cfg.JobURL, opts)
		if err != nil {
			return "", err
		}
		slog.Debug("fetched job description",
			slog.String("url", cfg.JobURL),
			slog.String("platform", string(result.Platform)),
			slog.Bool("browser", result.UsedBrowser))
		return result.Text, nil
	default:
		return "", nil
	}
}

// writeJSON pretty-prints v.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// trimKeywords drops blank entries left by flag splitting. Repeats are kept; each one counts.
func trimKeywords(keywords []string) []string {
	trimmed := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			trimmed = append(trimmed, kw)
		}
	}
	return trimmed
}
