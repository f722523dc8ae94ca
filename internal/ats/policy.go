// Package ats estimates how well a structured resume will parse in Applicant Tracking Systems.
//
// Scoring is a deterministic, weighted multi-factor heuristic: five category scorers
// (structure, keywords, content, readability, completeness) each produce 0-100, and a fixed
// weighted sum yields the overall score. Section signals and score-delta feedback are derived
// from the same pass.
package ats

import (
	"fmt"
	"regexp"
	"strings"
)

// Policy holds the tunable parts of the heuristic: the action-verb allow-list, the
// regexes that count as a quantified result, and the category weights.
type Policy struct {
	ActionVerbs    []string `json:"action_verbs,omitempty"`
	MetricPatterns []string `json:"metric_patterns,omitempty"`
	Weights        Weights  `json:"weights"`
}

// Weights are category weights in whole percentage points. They must sum to 100.
type Weights struct {
	Structure    int `json:"structure"`
	Keywords     int `json:"keywords"`
	Content      int `json:"content"`
	Readability  int `json:"readability"`
	Completeness int `json:"completeness"`
}

// Total returns the sum of all category weights.
func (w Weights) Total() int {
	return w.Structure + w.Keywords + w.Content + w.Readability + w.Completeness
}

// IsZero reports whether no weight has been set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

//nolint:gochecknoglobals // Scoring configuration constants
var defaultActionVerbs = []string{
	"led", "managed", "developed", "created", "implemented", "designed",
	"built", "improved", "increased", "reduced", "achieved", "launched",
	"delivered", "optimized", "streamlined", "spearheaded", "established", "coordinated",
}

//nolint:gochecknoglobals // Scoring configuration constants
var defaultMetricPatterns = []string{
	`\d+[%$KkMm+]`,
	`\$\d+`,
	`(?i)\d+\s*(?:users|customers|employees|team members)`,
}

// DefaultWeights returns structure 25, keywords 30, content 20, readability 15, completeness 10.
func DefaultWeights() Weights {
	return Weights{
		Structure:    25,
		Keywords:     30,
		Content:      20,
		Readability:  15,
		Completeness: 10,
	}
}

// DefaultPolicy returns the built-in scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		ActionVerbs:    append([]string(nil), defaultActionVerbs...),
		MetricPatterns: append([]string(nil), defaultMetricPatterns...),
		Weights:        DefaultWeights(),
	}
}

// MergeWithDefaults fills unset fields from DefaultPolicy.
func (p Policy) MergeWithDefaults() Policy {
	defaults := DefaultPolicy()
	if len(p.ActionVerbs) == 0 {
		p.ActionVerbs = defaults.ActionVerbs
	}
	if len(p.MetricPatterns) == 0 {
		p.MetricPatterns = defaults.MetricPatterns
	}
	if p.Weights.IsZero() {
		p.Weights = defaults.Weights
	}
	return p
}

// Validate checks weights and patterns without building a scorer.
func (p Policy) Validate() error {
	_, err := p.compile()
	return err
}

// compiledPolicy is the regex form of a Policy.
type compiledPolicy struct {
	actionVerb *regexp.Regexp
	metrics    []*regexp.Regexp
	weights    Weights
}

func (p Policy) compile() (*compiledPolicy, error) {
	w := p.Weights
	for _, v := range []int{w.Structure, w.Keywords, w.Content, w.Readability, w.Completeness} {
		if v < 0 {
			return nil, &PolicyError{Field: "weights", Message: "weights must be non-negative"}
		}
	}
	if w.Total() != 100 {
		return nil, &PolicyError{
			Field:   "weights",
			Message: fmt.Sprintf("weights must sum to 100, got %d", w.Total()),
		}
	}

	verbs := make([]string, 0, len(p.ActionVerbs))
	for _, verb := range p.ActionVerbs {
		verb = strings.TrimSpace(verb)
		if verb == "" {
			continue
		}
		verbs = append(verbs, regexp.QuoteMeta(verb))
	}
	if len(verbs) == 0 {
		return nil, &PolicyError{Field: "action_verbs", Message: "at least one action verb is required"}
	}
	actionVerb, err := regexp.Compile(`(?i)^(?:` + strings.Join(verbs, "|") + `)\b`)
	if err != nil {
		return nil, &PolicyError{Field: "action_verbs", Message: "failed to compile verb pattern", Cause: err}
	}

	if len(p.MetricPatterns) == 0 {
		return nil, &PolicyError{Field: "metric_patterns", Message: "at least one metric pattern is required"}
	}
	metrics := make([]*regexp.Regexp, 0, len(p.MetricPatterns))
	for i, pattern := range p.MetricPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &PolicyError{
				Field:   fmt.Sprintf("metric_patterns[%d]", i),
				Message: "invalid regular expression",
				Cause:   err,
			}
		}
		metrics = append(metrics, re)
	}

	return &compiledPolicy{actionVerb: actionVerb, metrics: metrics, weights: w}, nil
}
