package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [FILE]",
	Short: "Show recorded scores for a resume",
	Long: `List reports recorded by 'score --history-db', newest first. The resume is identified by
--resume-id or by the FILE path it was scored from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyDB       string
	historyResumeID string
	historyLimit    int
	historyJSON     bool
)

func init() {
	historyCmd.Flags().StringVar(&historyDB, "history-db", "", "SQLite file reports were recorded in")
	historyCmd.Flags().StringVar(&historyResumeID, "resume-id", "", "Resume ID to list (alternative to FILE)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", db.DefaultListLimit, "Maximum number of reports")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print reports as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := appConfig.HistoryDB
	if cmd.Flags().Changed("history-db") {
		path = historyDB
	}
	if path == "" {
		return fmt.Errorf("--history-db is required")
	}

	var file string
	if len(args) == 1 {
		file = args[0]
	}
	if (file == "") == (historyResumeID == "") {
		return fmt.Errorf("exactly one of FILE and --resume-id is required")
	}
	resumeID, err := resumeIDFor(file, historyResumeID)
	if err != nil {
		return err
	}

	store, err := db.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	records, err := store.ListReports(ctx, db.LocalUserID, resumeID, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(records)
	return nil
}
