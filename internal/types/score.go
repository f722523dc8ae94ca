package types

import "time"

// ScoreBreakdown holds the five category sub-scores, each 0-100.
type ScoreBreakdown struct {
	Structure    int `json:"structure"`
	Keywords     int `json:"keywords"`
	Content      int `json:"content"`
	Readability  int `json:"readability"`
	Completeness int `json:"completeness"`
}

// SignalStatus is the qualitative rating attached to a resume section.
type SignalStatus string

const (
	// SignalStrong means the section is in good shape.
	SignalStrong SignalStatus = "strong"
	// SignalNeedsImprovement means the section is usable but thin.
	SignalNeedsImprovement SignalStatus = "needs-improvement"
	// SignalRisk means the section is likely to hurt parsing or ranking.
	SignalRisk SignalStatus = "risk"
)

// Section identifiers watched by the signal rules.
const (
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionSkills     = "skills"
	SectionEducation  = "education"
)

// SectionSignal is one qualitative rating for one section.
type SectionSignal struct {
	SectionID string       `json:"sectionId"`
	Status    SignalStatus `json:"status"`
	Message   string       `json:"message"`
}

// Feedback is the transient message emitted when the score moves between passes.
type Feedback struct {
	Message   string    `json:"message"`
	Delta     int       `json:"delta"`
	Timestamp time.Time `json:"timestamp"`
}

// KeywordMatches lists which job-description keywords were found in the resume.
type KeywordMatches struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
}

// Report is the full output of one scoring pass.
type Report struct {
	Score          int             `json:"score"`
	Breakdown      ScoreBreakdown  `json:"breakdown"`
	SectionSignals []SectionSignal `json:"sectionSignals"`
	JobKeywords    []string        `json:"jobKeywords,omitempty"`
	KeywordMatches *KeywordMatches `json:"keywordMatches,omitempty"`
	ScoredAt       time.Time       `json:"scoredAt"`
}
