// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/jonathan/resume-builder/internal/schemas"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Job description source
	Job          string   `json:"job,omitempty"`           // Path to job description text file
	JobURL       string   `json:"job_url,omitempty"`       // URL to fetch the job description from
	Keywords     []string `json:"keywords,omitempty"`      // Explicit keywords; skips extraction
	KeywordLimit int      `json:"keyword_limit,omitempty"` // Maximum extracted keywords

	// Storage
	HistoryDB   string `json:"history_db,omitempty"`   // SQLite file for local report history
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Behavior
	APIKey     string `json:"api_key,omitempty"`     // Gemini API key
	UseLLM     bool   `json:"use_llm,omitempty"`     // Extract keywords with the LLM
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for SPA job pages
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information

	// Scoring
	Policy *ats.Policy `json:"policy,omitempty"` // Overrides for verbs, metric patterns and weights
	Timing Timing      `json:"timing,omitempty"` // Live recalculation timings
}

// Timing configures the live recalculation driver in milliseconds. Zero keeps the default.
type Timing struct {
	DebounceMS  int `json:"debounce_ms,omitempty"`
	AnimationMS int `json:"animation_ms,omitempty"`
	FrameMS     int `json:"frame_ms,omitempty"`
	FeedbackMS  int `json:"feedback_ms,omitempty"`
}

// Options converts the timings into driver options.
func (t Timing) Options() recalc.Options {
	return recalc.Options{
		Debounce:          time.Duration(t.DebounceMS) * time.Millisecond,
		AnimationDuration: time.Duration(t.AnimationMS) * time.Millisecond,
		FrameInterval:     time.Duration(t.FrameMS) * time.Millisecond,
		FeedbackWindow:    time.Duration(t.FeedbackMS) * time.Millisecond,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed, or its policy breaks the policy schema.
func LoadConfig(path string) (*Config, error) {
	data, err := readFile(path, "config")
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	var raw struct {
		Policy json.RawMessage `json:"policy"`
	}
	if err := json.Unmarshal(data, &raw); err == nil && len(raw.Policy) > 0 && string(raw.Policy) != "null" {
		if err := schemas.ValidatePolicy(raw.Policy); err != nil {
			return nil, fmt.Errorf("config error: invalid policy: %w", err)
		}
	}

	return &cfg, nil
}

// LoadPolicy reads a standalone policy file, validates it and fills unset fields from defaults.
func LoadPolicy(path string) (*ats.Policy, error) {
	data, err := readFile(path, "policy")
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidatePolicy(data); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}

	var policy ats.Policy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	merged := policy.MergeWithDefaults()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func readFile(path, kind string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%s path is empty", kind)
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", kind, path, err)
	}
	return data, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	if c.KeywordLimit < 0 || c.KeywordLimit > 100 {
		return fmt.Errorf("config error: 'keyword_limit' must be between 0 and 100")
	}

	t := c.Timing
	if t.DebounceMS < 0 || t.AnimationMS < 0 || t.FrameMS < 0 || t.FeedbackMS < 0 {
		return fmt.Errorf("config error: 'timing' values must be non-negative")
	}

	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}

	if c.Policy != nil {
		if err := c.Policy.MergeWithDefaults().Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	return nil
}

// ScoringPolicy returns the configured policy merged over the defaults.
func (c *Config) ScoringPolicy() ats.Policy {
	if c.Policy == nil {
		return ats.DefaultPolicy()
	}
	return c.Policy.MergeWithDefaults()
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.HistoryDB == "" {
		result.HistoryDB = defaults.HistoryDB
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if len(result.Keywords) == 0 {
		result.Keywords = defaults.Keywords
	}
	if result.KeywordLimit == 0 {
		result.KeywordLimit = defaults.KeywordLimit
	}
	if result.Policy == nil {
		result.Policy = defaults.Policy
	}

	if result.Timing.DebounceMS == 0 {
		result.Timing.DebounceMS = defaults.Timing.DebounceMS
	}
	if result.Timing.AnimationMS == 0 {
		result.Timing.AnimationMS = defaults.Timing.AnimationMS
	}
	if result.Timing.FrameMS == 0 {
		result.Timing.FrameMS = defaults.Timing.FrameMS
	}
	if result.Timing.FeedbackMS == 0 {
		result.Timing.FeedbackMS = defaults.Timing.FeedbackMS
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
