package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultListLimit caps ListReports when the caller passes a non-positive limit.
const DefaultListLimit = 50

// LocalUserID owns reports saved by the CLI, which has no signed-in user.
var LocalUserID = uuid.Nil

// ReportRecord is one stored scoring pass for one resume.
type ReportRecord struct {
	ID             uuid.UUID             `json:"id"`
	UserID         uuid.UUID             `json:"user_id"`
	ResumeID       uuid.UUID             `json:"resume_id"`
	Score          int                   `json:"score"`
	Breakdown      types.ScoreBreakdown  `json:"breakdown"`
	SectionSignals []types.SectionSignal `json:"section_signals"`
	JobKeywords    []string              `json:"job_keywords,omitempty"`
	KeywordMatches *types.KeywordMatches `json:"keyword_matches,omitempty"`
	ScoredAt       time.Time             `json:"scored_at"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NewReportRecord wraps a report for storage. ID and CreatedAt are assigned on save.
func NewReportRecord(userID, resumeID uuid.UUID, report types.Report) *ReportRecord {
	return &ReportRecord{
		UserID:         userID,
		ResumeID:       resumeID,
		Score:          report.Score,
		Breakdown:      report.Breakdown,
		SectionSignals: report.SectionSignals,
		JobKeywords:    report.JobKeywords,
		KeywordMatches: report.KeywordMatches,
		ScoredAt:       report.ScoredAt,
	}
}

// Report converts the record back into the scorer's report shape.
func (r *ReportRecord) Report() types.Report {
	return types.Report{
		Score:          r.Score,
		Breakdown:      r.Breakdown,
		SectionSignals: r.SectionSignals,
		JobKeywords:    r.JobKeywords,
		KeywordMatches: r.KeywordMatches,
		ScoredAt:       r.ScoredAt,
	}
}

// ResumeIDForPath derives a stable resume ID from a file path, for CLI history.
func ResumeIDForPath(path string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path))
}
