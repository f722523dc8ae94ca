package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-score a resume live while it is being edited",
	Long: `Watch a resume JSON file and re-score it whenever it changes. Bursts of saves are
debounced into one scoring pass; the displayed score eases toward each new score and
score changes print a short feedback message. Press Ctrl+C to stop.

Changes are picked up from file system notifications. Where those are unavailable the
file is polled every --interval.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchJob      jobFlags
	watchInterval time.Duration
	watchPolicy   string
)

func init() {
	watchJob.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 250*time.Millisecond, "Polling interval when file notifications are unavailable")
	watchCmd.Flags().StringVar(&watchPolicy, "policy", "", "Path to a scoring policy JSON file")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	if err := watchJob.apply(cmd, &cfg); err != nil {
		return err
	}
	if watchInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	scorer, err := newScorer(&cfg, watchPolicy)
	if err != nil {
		return err
	}

	var keywords []string
	if result, err := resolveKeywords(ctx, &cfg); err != nil {
		return err
	} else if result != nil {
		keywords = result.Keywords
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	opts := cfg.Timing.Options()
	opts.Logger = slog.Default()
	opts.OnChange = liveStatePrinter(printer)

	driver := recalc.NewDriver(scorer, recalc.SystemScheduler(), opts)
	defer driver.Stop()

	path := args[0]
	changes := watchFile(ctx, path, watchInterval)

	slog.Info("watching resume", slog.String("file", path), slog.Int("keywords", len(keywords)))
	for {
		select {
		case <-ctx.Done():
			finishWatch(driver, printer, path)
			return nil
		case <-changes:
			doc, err := readDocument(path)
			if err != nil {
				// The last good revision stays scored until the file parses again.
				slog.Warn("skipping invalid revision", slog.Any("error", err))
				continue
			}
			if err := driver.Recalculate(*doc, keywords); err != nil {
				return err
			}
		}
	}
}

// finishWatch scores any pending revision and prints the final report. The
// driver is stopped first so no animation frame prints after the report.
func finishWatch(driver *recalc.Driver, printer *observability.Printer, path string) {
	driver.Flush()
	driver.Stop()
	if report, ok := driver.Report(); ok {
		printer.PrintReport(path, &report)
	}
}

// liveStatePrinter prints a state only when its visible line would change.
func liveStatePrinter(printer *observability.Printer) func(recalc.State) {
	var last string
	return func(state recalc.State) {
		key := fmt.Sprintf("%d|%t", state.DisplayedScore, state.Pending)
		if state.Feedback != nil {
			key += "|" + state.Feedback.Message + state.Feedback.Timestamp.String()
		}
		if key == last {
			return
		}
		last = key
		printer.PrintLiveState(state)
	}
}

// watchFile signals on the returned channel whenever path may have changed,
// starting with one signal for the initial read. Signals coalesce while the
// receiver is busy. The channel is never closed; watching ends with ctx.
func watchFile(ctx context.Context, path string, interval time.Duration) <-chan struct{} {
	changes := make(chan struct{}, 1)
	changes <- struct{}{}

	if err := notifyChanges(ctx, path, changes); err != nil {
		slog.Warn("file notifications unavailable, polling instead",
			slog.String("file", path), slog.Duration("interval", interval), slog.Any("error", err))
		go pollChanges(ctx, newFileWatcher(path), interval, changes)
	}
	return changes
}

// notifyChanges forwards fsnotify events for path. The parent directory is watched
// so editors that save by renaming a temporary file over path are still seen.
func notifyChanges(ctx context.Context, path string, changes chan<- struct{}) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == target && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					signalChange(changes)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("file watcher error", slog.Any("error", err))
			}
		}
	}()
	return nil
}

// pollChanges is the fallback for file systems without notifications.
func pollChanges(ctx context.Context, w *fileWatcher, interval time.Duration, changes chan<- struct{}) {
	// The initial read is already signalled.
	_, _ = w.changed()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.changed()
			if err != nil {
				slog.Warn("cannot stat resume file", slog.Any("error", err))
				continue
			}
			if changed {
				signalChange(changes)
			}
		}
	}
}

func signalChange(changes chan<- struct{}) {
	select {
	case changes <- struct{}{}:
	default:
	}
}

// fileWatcher detects changes by comparing modification time and size.
type fileWatcher struct {
	path    string
	modTime time.Time
	size    int64
	seen    bool
}

func newFileWatcher(path string) *fileWatcher {
	return &fileWatcher{path: path}
}

// changed reports whether the file differs from the last check. The first
// successful check always reports a change.
func (w *fileWatcher) changed() (bool, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return false, err
	}
	if w.seen && info.ModTime().Equal(w.modTime) && info.Size() == w.size {
		return false, nil
	}
	w.seen = true
	w.modTime = info.ModTime()
	w.size = info.Size()
	return true, nil
}
