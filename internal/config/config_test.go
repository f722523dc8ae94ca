package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{
		"job_url": "https://example.com/job",
		"keywords": ["go", "kafka"],
		"history_db": "history.db",
		"verbose": true,
		"policy": {"action_verbs": ["shipped"]},
		"timing": {"debounce_ms": 250, "feedback_ms": 2000}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/job", cfg.JobURL)
	assert.Equal(t, []string{"go", "kafka"}, cfg.Keywords)
	assert.Equal(t, "history.db", cfg.HistoryDB)
	assert.True(t, cfg.Verbose)
	require.NotNil(t, cfg.Policy)
	assert.Equal(t, []string{"shipped"}, cfg.Policy.ActionVerbs)
	assert.Equal(t, 250, cfg.Timing.DebounceMS)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeTemp(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_PolicySchemaViolation(t *testing.T) {
	path := writeTemp(t, "config.json", `{"policy": {"weights": {"structure": 100}}}`)

	cfg, err := LoadConfig(path)
	assert.Nil(t, cfg)
	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Nil(t, cfg)
	assert.EqualError(t, err, "config path is empty")
}

func TestLoadPolicy(t *testing.T) {
	policy, err := LoadPolicy("../../testdata/valid/policy.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"led", "shipped", "owned"}, policy.ActionVerbs)
	assert.Equal(t, 40, policy.Weights.Keywords)
	assert.Equal(t, ats.DefaultPolicy().MetricPatterns, policy.MetricPatterns)

	_, err = LoadPolicy("../../testdata/invalid/policy_unknown_field.json")
	assert.Error(t, err)

	// Schema-valid but the weights do not sum to 100.
	path := writeTemp(t, "policy.json", `{"weights": {"structure": 10, "keywords": 10, "content": 10, "readability": 10, "completeness": 10}}`)
	_, err = LoadPolicy(path)
	var policyErr *ats.PolicyError
	assert.ErrorAs(t, err, &policyErr)
}

func TestValidate(t *testing.T) {
	jobFile := writeTemp(t, "job.txt", "Senior Go engineer")

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty", cfg: Config{}},
		{name: "job file", cfg: Config{Job: jobFile, KeywordLimit: 30}},
		{name: "mutually exclusive", cfg: Config{Job: jobFile, JobURL: "https://example.com"}, wantErr: "mutually exclusive"},
		{name: "missing job file", cfg: Config{Job: "/nonexistent/job.txt"}, wantErr: "job file not found"},
		{name: "keyword limit", cfg: Config{KeywordLimit: 101}, wantErr: "keyword_limit"},
		{name: "negative timing", cfg: Config{Timing: Timing{FrameMS: -1}}, wantErr: "timing"},
		{
			name:    "bad policy",
			cfg:     Config{Policy: &ats.Policy{MetricPatterns: []string{"("}}},
			wantErr: "metric_patterns[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoringPolicy(t *testing.T) {
	assert.Equal(t, ats.DefaultPolicy(), (&Config{}).ScoringPolicy())

	cfg := Config{Policy: &ats.Policy{ActionVerbs: []string{"shipped"}}}
	policy := cfg.ScoringPolicy()
	assert.Equal(t, []string{"shipped"}, policy.ActionVerbs)
	assert.Equal(t, ats.DefaultWeights(), policy.Weights)
}

func TestTimingOptions(t *testing.T) {
	opts := Timing{DebounceMS: 250, FeedbackMS: 2000}.Options()
	assert.Equal(t, 250*time.Millisecond, opts.Debounce)
	assert.Equal(t, 2*time.Second, opts.FeedbackWindow)
	assert.Zero(t, opts.AnimationDuration)
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		JobURL: "https://cli.example.com/job",
		Timing: Timing{DebounceMS: 100},
	}
	defaults := Config{
		JobURL:       "https://config.example.com/job",
		HistoryDB:    "history.db",
		Keywords:     []string{"go"},
		KeywordLimit: 15,
		Timing:       Timing{DebounceMS: 400, AnimationMS: 600},
	}

	result := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "https://cli.example.com/job", result.JobURL, "CLI value should win")
	assert.Equal(t, "history.db", result.HistoryDB)
	assert.Equal(t, []string{"go"}, result.Keywords)
	assert.Equal(t, 15, result.KeywordLimit)
	assert.Equal(t, 100, result.Timing.DebounceMS)
	assert.Equal(t, 600, result.Timing.AnimationMS)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Job: "job.txt", KeywordLimit: 10}
	result := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, cfg, result)
}
