package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ats_reports (
	id              UUID PRIMARY KEY,
	user_id         UUID NOT NULL,
	resume_id       UUID NOT NULL,
	score           INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	breakdown       JSONB NOT NULL,
	section_signals JSONB NOT NULL,
	job_keywords    JSONB,
	keyword_matches JSONB,
	scored_at       TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ats_reports_resume
	ON ats_reports (user_id, resume_id, scored_at DESC);
`

const postgresColumns = `id, user_id, resume_id, score, breakdown, section_signals,
	job_keywords, keyword_matches, scored_at, created_at`

// PostgresStore keeps report history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the report table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveReport inserts a report record.
func (s *PostgresStore) SaveReport(ctx context.Context, rec *ReportRecord) error {
	enc, err := prepareRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ats_reports (`+postgresColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.UserID, rec.ResumeID, rec.Score, enc.breakdown, enc.sectionSignals,
		enc.jobKeywords, enc.keywordMatches, rec.ScoredAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// ListReports returns a resume's reports, newest first.
func (s *PostgresStore) ListReports(ctx context.Context, userID, resumeID uuid.UUID, limit int) ([]ReportRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresColumns+`
		 FROM ats_reports
		 WHERE user_id = $1 AND resume_id = $2
		 ORDER BY scored_at DESC, created_at DESC
		 LIMIT $3`,
		userID, resumeID, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := []ReportRecord{}
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
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
func (s *PostgresStore) GetReport(ctx context.Context, userID, id uuid.UUID) (*ReportRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM ats_reports WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	rec, err := scanPostgresRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func scanPostgresRecord(row pgx.Row) (*ReportRecord, error) {
	var rec ReportRecord
	var enc encodedRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ResumeID, &rec.Score, &enc.breakdown, &enc.sectionSignals,
		&enc.jobKeywords, &enc.keywordMatches, &rec.ScoredAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if err := enc.decodeInto(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
