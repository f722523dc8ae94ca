// Package llm wraps the Gemini API for the structured extraction calls made by the
// keyword parser.
package llm

import (
	"os"
	"strings"
	"time"
)

// Environment variables read by APIKeyFromEnv and ConfigFromEnv.
const (
	APIKeyEnv = "GEMINI_API_KEY"
	ModelEnv  = "GEMINI_MODEL"
)

// DefaultModel is a small, fast model; keyword extraction needs no heavy reasoning.
const DefaultModel = "gemini-2.5-flash-lite"

const (
	defaultTemperature     float32 = 0.1
	defaultMaxOutputTokens int32   = 1024
	defaultTimeout                 = 30 * time.Second
)

// Config selects the model and generation settings.
type Config struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	// Timeout bounds each request on top of the caller's context. Zero means no extra bound.
	Timeout time.Duration
}

// DefaultConfig returns settings tuned for short, repeatable JSON answers.
func DefaultConfig() *Config {
	return &Config{
		Model:           DefaultModel,
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxOutputTokens,
		Timeout:         defaultTimeout,
	}
}

// ConfigFromEnv returns DefaultConfig with the model taken from GEMINI_MODEL when set.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if model := strings.TrimSpace(os.Getenv(ModelEnv)); model != "" {
		cfg.Model = model
	}
	return cfg
}

// APIKeyFromEnv returns the API key from the environment, or "".
func APIKeyFromEnv() string {
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}
