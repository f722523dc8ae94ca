package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scoreCmd = &cobra.Command{
	Use:   "score FILE...",
	Short: "Score one or more resume JSON documents",
	Long: `Validate each resume document against the resume schema and compute its ATS score,
category breakdown, section signals and, when a job description is given, keyword matches.

Files are scored concurrently. With --history-db every report is appended to a local SQLite history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

var (
	scoreJob       jobFlags
	scoreJSON      bool
	scoreHistoryDB string
	scoreResumeID  string
	scorePolicy    string
)

func init() {
	scoreJob.register(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print reports as JSON")
	scoreCmd.Flags().StringVar(&scoreHistoryDB, "history-db", "", "SQLite file to record reports in")
	scoreCmd.Flags().StringVar(&scoreResumeID, "resume-id", "", "Resume ID to record under (default: derived from the file path)")
	scoreCmd.Flags().StringVar(&scorePolicy, "policy", "", "Path to a scoring policy JSON file")

	rootCmd.AddCommand(scoreCmd)
}

// scoredFile is one file's report.
type scoredFile struct {
	File     string       `json:"file"`
	ResumeID string       `json:"resumeId,omitempty"`
	ReportID string       `json:"reportId,omitempty"`
	Report   types.Report `json:"report"`
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := appConfig
	if err := scoreJob.apply(cmd, &cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("history-db") {
		cfg.HistoryDB = scoreHistoryDB
	}
	if scoreResumeID != "" && len(args) > 1 {
		return fmt.Errorf("--resume-id can only be used with a single file")
	}

	scorer, err := newScorer(&cfg, scorePolicy)
	if err != nil {
		return err
	}

	var keywords []string
	if result, err := resolveKeywords(ctx, &cfg); err != nil {
		return err
	} else if result != nil {
		keywords = result.Keywords
	}

	results, err := scoreFiles(ctx, scorer, args, keywords)
	if err != nil {
		return err
	}

	if cfg.HistoryDB != "" {
		if err := recordHistory(ctx, cfg.HistoryDB, scoreResumeID, results); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		if len(results) == 1 {
			return writeJSON(out, results[0])
		}
		return writeJSON(out, results)
	}

	printer := observability.NewPrinter(out)
	for i := range results {
		printer.PrintReport(results[i].File, &results[i].Report)
	}
	return nil
}

// newScorer builds a scorer from --policy, or from the config file's policy.
func newScorer(cfg *config.Config, policyPath string) (*ats.Scorer, error) {
	policy := cfg.ScoringPolicy()
	if policyPath != "" {
		loaded, err := config.LoadPolicy(policyPath)
		if err != nil {
			return nil, err
		}
		policy = *loaded
	}
	scorer, err := ats.NewScorer(policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}
	return scorer, nil
}

// scoreFiles loads and scores every file concurrently. Results keep the argument order.
func scoreFiles(ctx context.Context, scorer *ats.Scorer, files []string, keywords []string) ([]scoredFile, error) {
	results := make([]scoredFile, len(files))
	now := time.Now().UTC()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			doc, err := readDocument(file)
			if err != nil {
				return err
			}
			report := scorer.Score(doc, keywords)
			report.ScoredAt = now
			results[i] = scoredFile{File: file, Report: report}
			slog.Debug("scored resume", slog.String("file", file), slog.Int("score", report.Score))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// recordHistory appends each result to the local SQLite history.
func recordHistory(ctx context.Context, path, resumeID string, results []scoredFile) error {
	store, err := db.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	for i := range results {
		id, err := resumeIDFor(results[i].File, resumeID)
		if err != nil {
			return err
		}
		rec := db.NewReportRecord(db.LocalUserID, id, results[i].Report)
		if err := store.SaveReport(ctx, rec); err != nil {
			return fmt.Errorf("failed to record report for %s: %w", results[i].File, err)
		}
		results[i].ResumeID = id.String()
		results[i].ReportID = rec.ID.String()
	}
	slog.Debug("recorded reports", slog.String("db", path), slog.Int("count", len(results)))
	return nil
}

// resumeIDFor parses an explicit ID or derives a stable one from the file's absolute path.
func resumeIDFor(file, explicit string) (uuid.UUID, error) {
	if explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid --resume-id: %w", err)
		}
		return id, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve %s: %w", file, err)
	}
	return db.ResumeIDForPath(abs), nil
}
