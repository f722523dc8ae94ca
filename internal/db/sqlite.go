package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ats_reports (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	resume_id       TEXT NOT NULL,
	score           INTEGER NOT NULL,
	breakdown       TEXT NOT NULL,
	section_signals TEXT NOT NULL,
	job_keywords    TEXT,
	keyword_matches TEXT,
	scored_at       TEXT NOT NULL,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ats_reports_resume ON ats_reports (user_id, resume_id, scored_at);`

const sqliteColumns = `id, user_id, resume_id, score, breakdown, section_signals,
	job_keywords, keyword_matches, scored_at, created_at`

// SQLiteStore keeps report history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport inserts a report record.
func (s *SQLiteStore) SaveReport(ctx context.Context, rec *ReportRecord) error {
	enc, err := prepareRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ats_reports (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.UserID.String(), rec.ResumeID.String(), rec.Score,
		string(enc.breakdown), string(enc.sectionSignals),
		nullableText(enc.jobKeywords), nullableText(enc.keywordMatches),
		rec.ScoredAt.UTC().Format(sqliteTimeLayout), rec.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ListReports returns a resume's reports, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, userID, resumeID uuid.UUID, limit int) ([]ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+`
		 FROM ats_reports
		 WHERE user_id = ? AND resume_id = ?
		 ORDER BY scored_at DESC, rowid DESC
		 LIMIT ?`,
		userID.String(), resumeID.String(), listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []ReportRecord{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return records, nil
}

// GetReport retrieves a report by ID for its owner.
func (s *SQLiteStore) GetReport(ctx context.Context, userID, id uuid.UUID) (*ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM ats_reports WHERE id = ? AND user_id = ?`,
		id.String(), userID.String(),
	)
	rec, err := scanSQLiteRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*ReportRecord, error) {
	var (
		rec                  ReportRecord
		id, userID, resumeID string
		breakdown, signals   string
		keywords, matches    sql.NullString
		scoredAt, createdAt  string
	)
	err := row.Scan(&id, &userID, &resumeID, &rec.Score, &breakdown, &signals,
		&keywords, &matches, &scoredAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse report id: %w", err)
	}
	if rec.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	if rec.ResumeID, err = uuid.Parse(resumeID); err != nil {
		return nil, fmt.Errorf("failed to parse resume id: %w", err)
	}
	if rec.ScoredAt, err = time.Parse(sqliteTimeLayout, scoredAt); err != nil {
		return nil, fmt.Errorf("failed to parse scored_at: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	enc := encodedRecord{
		breakdown:      []byte(breakdown),
		sectionSignals: []byte(signals),
		jobKeywords:    []byte(keywords.String),
		keywordMatches: []byte(matches.String),
	}
	if err := enc.decodeInto(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func nullableText(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
