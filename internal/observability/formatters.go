// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
	// barWidth is the number of cells in a score bar
	barWidth = 20
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// scoreBar renders a 0-100 score as a fixed-width bar.
func scoreBar(score int) string {
	score = max(0, min(100, score))
	filled := score * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func signalIcon(status types.SignalStatus) string {
	switch status {
	case types.SignalStrong:
		return "✓"
	case types.SignalNeedsImprovement:
		return "!"
	default:
		return "✗"
	}
}

// PrintReport outputs a human-readable ATS report.
func (p *Printer) PrintReport(title string, report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Overall:       %3d / 100\n", report.Score))
	sb.WriteString("\n")

	b := report.Breakdown
	rows := []struct {
		name  string
		score int
	}{
		{"Structure", b.Structure},
		{"Keywords", b.Keywords},
		{"Content", b.Content},
		{"Readability", b.Readability},
		{"Completeness", b.Completeness},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%-13s  %3d  %s\n", row.name, row.score, scoreBar(row.score)))
	}

	if len(report.SectionSignals) > 0 {
		sb.WriteString("\nSections:\n")
		for _, s := range report.SectionSignals {
			sb.WriteString(fmt.Sprintf("  %s %-10s %s\n", signalIcon(s.Status), s.SectionID, s.Message))
		}
	}

	if m := report.KeywordMatches; m != nil {
		sb.WriteString(fmt.Sprintf("\nKeywords matched: %d of %d\n", len(m.Matched), len(m.Matched)+len(m.Missing)))
		if len(m.Missing) > 0 {
			sb.WriteString("Missing:\n")
			writeList(&sb, m.Missing)
		}
	}

	p.printBox(title, sb.String())
}

// PrintKeywords outputs extracted job-description keywords and where they came from.
func (p *Printer) PrintKeywords(keywords []string, source string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s\n", source))
	sb.WriteString(fmt.Sprintf("Count:  %d\n", len(keywords)))
	if len(keywords) > 0 {
		sb.WriteString("\n")
		for i, kw := range keywords {
			sb.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, kw))
		}
	}
	p.printBox("JOB KEYWORDS", sb.String())
}

// PrintHistory outputs stored reports, newest first.
func (p *Printer) PrintHistory(records []db.ReportRecord) {
	if len(records) == 0 {
		p.printBox("SCORE HISTORY", "No reports recorded yet")
		return
	}

	var sb strings.Builder
	for i, rec := range records {
		trend := ""
		if i+1 < len(records) {
			trend = formatDelta(rec.Score - records[i+1].Score)
		}
		sb.WriteString(fmt.Sprintf("%s  %3d  %-5s %s\n",
			rec.ScoredAt.Local().Format("2006-01-02 15:04:05"), rec.Score, trend, rec.ID.String()[:8]))
	}
	p.printBox(fmt.Sprintf("SCORE HISTORY (%d)", len(records)), sb.String())
}

// PrintLiveState writes a one-line view of a live recalculation state.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLiveState(state recalc.State) {
	line := fmt.Sprintf("ATS %3d %s", state.DisplayedScore, scoreBar(state.DisplayedScore))
	if state.Pending {
		line += "  (editing)"
	}
	if fb := state.Feedback; fb != nil {
		line += fmt.Sprintf("  %s %s", formatDelta(fb.Delta), fb.Message)
	}
	fmt.Fprintln(p.out, line)
}

func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "="
	}
}

func writeList(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}
