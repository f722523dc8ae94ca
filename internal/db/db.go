// Package db stores ATS report history in PostgreSQL or SQLite.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportStore persists scoring passes per (user, resume).
type ReportStore interface {
	// SaveReport stores rec, assigning ID and CreatedAt when they are zero.
	SaveReport(ctx context.Context, rec *ReportRecord) error
	// ListReports returns a resume's reports, newest first.
	ListReports(ctx context.Context, userID, resumeID uuid.UUID, limit int) ([]ReportRecord, error)
	// GetReport returns nil, nil when the report does not exist or belongs to another user.
	GetReport(ctx context.Context, userID, id uuid.UUID) (*ReportRecord, error)
	Close() error
}

// encodedRecord holds the JSON columns of a record.
type encodedRecord struct {
	breakdown      []byte
	sectionSignals []byte
	jobKeywords    []byte
	keywordMatches []byte
}

// prepareRecord fills defaults and marshals the JSON columns.
func prepareRecord(rec *ReportRecord) (*encodedRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ScoredAt.IsZero() {
		rec.ScoredAt = rec.CreatedAt
	}

	enc := &encodedRecord{}
	var err error
	if enc.breakdown, err = json.Marshal(rec.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	if enc.sectionSignals, err = json.Marshal(rec.SectionSignals); err != nil {
		return nil, fmt.Errorf("failed to marshal section signals: %w", err)
	}
	if rec.JobKeywords != nil {
		if enc.jobKeywords, err = json.Marshal(rec.JobKeywords); err != nil {
			return nil, fmt.Errorf("failed to marshal job keywords: %w", err)
		}
	}
	if rec.KeywordMatches != nil {
		if enc.keywordMatches, err = json.Marshal(rec.KeywordMatches); err != nil {
			return nil, fmt.Errorf("failed to marshal keyword matches: %w", err)
		}
	}
	return enc, nil
}

// decodeInto unmarshals the JSON columns into rec.
func (enc *encodedRecord) decodeInto(rec *ReportRecord) error {
	if err := json.Unmarshal(enc.breakdown, &rec.Breakdown); err != nil {
		return fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	if err := json.Unmarshal(enc.sectionSignals, &rec.SectionSignals); err != nil {
		return fmt.Errorf("failed to unmarshal section signals: %w", err)
	}
	if len(enc.jobKeywords) > 0 {
		if err := json.Unmarshal(enc.jobKeywords, &rec.JobKeywords); err != nil {
			return fmt.Errorf("failed to unmarshal job keywords: %w", err)
		}
	}
	if len(enc.keywordMatches) > 0 {
		rec.KeywordMatches = nil
		if err := json.Unmarshal(enc.keywordMatches, &rec.KeywordMatches); err != nil {
			return fmt.Errorf("failed to unmarshal keyword matches: %w", err)
		}
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
