// Package recalc drives live ATS scoring for a document that is being edited.
//
// Edits are debounced so a burst of changes produces one scoring pass using the
// last arguments. After each pass the displayed score eases toward the new score,
// and score changes produce short-lived feedback. All timing goes through an
// injected Scheduler.
package recalc

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/ats"
	"github.com/jonathan/resume-builder/internal/types"
)

// ErrStopped is returned by Recalculate after Stop.
var ErrStopped = errors.New("recalc: driver stopped")

// Default timings.
const (
	DefaultDebounce          = 300 * time.Millisecond
	DefaultAnimationDuration = 500 * time.Millisecond
	DefaultFrameInterval     = 16 * time.Millisecond
	DefaultFeedbackWindow    = 3 * time.Second
)

// Options configures a Driver. Zero durations fall back to the defaults.
type Options struct {
	Debounce          time.Duration
	AnimationDuration time.Duration
	FrameInterval     time.Duration
	FeedbackWindow    time.Duration

	// OnChange receives a copy of the state after every pass, animation frame and
	// feedback expiry. Calls are serialized and arrive in order. OnChange must not
	// call back into the Driver.
	OnChange func(State)

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.AnimationDuration <= 0 {
		o.AnimationDuration = DefaultAnimationDuration
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.FeedbackWindow <= 0 {
		o.FeedbackWindow = DefaultFeedbackWindow
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// State is a point-in-time view of a driver.
type State struct {
	Score          int                   `json:"score"`
	DisplayedScore int                   `json:"displayedScore"`
	Breakdown      types.ScoreBreakdown  `json:"breakdown"`
	SectionSignals []types.SectionSignal `json:"sectionSignals"`
	Feedback       *types.Feedback       `json:"feedback"`
	JobKeywords    []string              `json:"jobKeywords,omitempty"`
	KeywordMatches *types.KeywordMatches `json:"keywordMatches,omitempty"`
	ScoredAt       time.Time             `json:"scoredAt"`
	Pending        bool                  `json:"pending"`
	Animating      bool                  `json:"animating"`
	Passes         int                   `json:"passes"`
}

type pendingPass struct {
	doc      types.ResumeDocument
	keywords []string
}

// Driver owns one document's live score. It is safe for concurrent use.
type Driver struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	scorer  *ats.Scorer
	sched   Scheduler
	opts    Options
	tracker *ats.Tracker

	pending       *pendingPass
	debounceTimer Timer
	debounceGen   uint64
	superseded    int

	report   types.Report
	feedback *types.Feedback
	passes   int

	feedbackTimer Timer
	feedbackGen   uint64

	displayed  float64
	anim       *tween
	frameTimer Timer
	frameGen   uint64

	stopped bool
}

// NewDriver returns a driver with no score yet. Its first pass sets the feedback
// baseline without emitting feedback.
func NewDriver(scorer *ats.Scorer, sched Scheduler, opts Options) *Driver {
	if sched == nil {
		sched = SystemScheduler()
	}
	return &Driver{
		scorer:  scorer,
		sched:   sched,
		opts:    opts.withDefaults(),
		tracker: ats.NewTracker(),
	}
}

// Recalculate schedules a scoring pass after the quiet period. A call made while a
// pass is pending replaces it and restarts the quiet period.
func (d *Driver) Recalculate(doc types.ResumeDocument, keywords []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrStopped
	}

	if d.pending != nil {
		d.superseded++
	}
	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
	}

	d.pending = &pendingPass{doc: doc, keywords: append([]string(nil), keywords...)}
	d.debounceGen++
	gen := d.debounceGen
	d.debounceTimer = d.sched.AfterFunc(d.opts.Debounce, func() { d.onDebounce(gen) })
	return nil
}

// Flush runs a pending pass immediately. It reports whether a pass ran.
func (d *Driver) Flush() bool {
	d.mu.Lock()
	if d.stopped || d.pending == nil {
		d.mu.Unlock()
		return false
	}
	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
	}
	d.debounceGen++
	d.runPassLocked()
	d.unlockAndNotify()
	return true
}

// Snapshot returns the current state.
func (d *Driver) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

// Report returns the report of the most recent pass and whether one has run.
func (d *Driver) Report() (types.Report, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report, d.passes > 0
}

// Stop cancels every timer and discards any pending pass. It is idempotent.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.pending = nil
	for _, t := range []Timer{d.debounceTimer, d.frameTimer, d.feedbackTimer} {
		if t != nil {
			t.Stop()
		}
	}
	d.debounceTimer, d.frameTimer, d.feedbackTimer = nil, nil, nil
	// Invalidate callbacks that were already on their way.
	d.debounceGen++
	d.frameGen++
	d.feedbackGen++
}

func (d *Driver) onDebounce(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.debounceGen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.runPassLocked()
	d.unlockAndNotify()
}

// runPassLocked scores the pending document. Callers must hold d.mu.
func (d *Driver) runPassLocked() {
	p := d.pending
	d.pending = nil
	d.debounceTimer = nil

	now := d.sched.Now()
	report := d.scorer.Score(&p.doc, p.keywords)
	report.ScoredAt = now

	fb := d.tracker.Observe(report.Score, now)
	d.report = report
	d.passes++

	if fb != nil {
		d.setFeedbackLocked(fb)
	}
	d.animateLocked(report.Score, now)

	delta := 0
	if fb != nil {
		delta = fb.Delta
	}
	d.opts.Logger.Debug("ats recalculation",
		slog.Int("score", report.Score),
		slog.Int("delta", delta),
		slog.Int("superseded", d.superseded),
		slog.Int("pass", d.passes))
	d.superseded = 0
}

// setFeedbackLocked shows fb and restarts the expiry window.
func (d *Driver) setFeedbackLocked(fb *types.Feedback) {
	d.feedback = fb
	if d.feedbackTimer != nil {
		d.feedbackTimer.Stop()
	}
	d.feedbackGen++
	gen := d.feedbackGen
	d.feedbackTimer = d.sched.AfterFunc(d.opts.FeedbackWindow, func() { d.onFeedbackExpired(gen) })
}

func (d *Driver) onFeedbackExpired(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.feedbackGen {
		d.mu.Unlock()
		return
	}
	d.feedback = nil
	d.feedbackTimer = nil
	d.unlockAndNotify()
}

// animateLocked eases the displayed score toward target. A running animation is
// retargeted from its current value and keeps its deadline.
func (d *Driver) animateLocked(target int, now time.Time) {
	if d.anim != nil && !d.anim.done(now) {
		d.anim = d.anim.retarget(target, now)
		d.displayed = d.anim.valueAt(now)
	} else {
		d.anim = newTween(d.displayed, target, now, d.opts.AnimationDuration)
	}
	if d.frameTimer == nil {
		d.scheduleFrameLocked()
	}
}

func (d *Driver) scheduleFrameLocked() {
	d.frameGen++
	gen := d.frameGen
	d.frameTimer = d.sched.AfterFunc(d.opts.FrameInterval, func() { d.onFrame(gen) })
}

func (d *Driver) onFrame(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.frameGen || d.anim == nil {
		d.mu.Unlock()
		return
	}

	now := d.sched.Now()
	d.displayed = d.anim.valueAt(now)
	if d.anim.done(now) {
		d.displayed = d.anim.to
		d.anim = nil
		d.frameTimer = nil
	} else {
		d.scheduleFrameLocked()
	}
	d.unlockAndNotify()
}

// unlockAndNotify captures the state, releases d.mu and delivers the state to OnChange.
// notifyMu is taken before d.mu is released so deliveries keep their order.
func (d *Driver) unlockAndNotify() {
	if d.opts.OnChange == nil {
		d.mu.Unlock()
		return
	}
	state := d.stateLocked()
	d.notifyMu.Lock()
	d.mu.Unlock()
	defer d.notifyMu.Unlock()
	d.opts.OnChange(state)
}

func (d *Driver) stateLocked() State {
	s := State{
		Score:          d.report.Score,
		DisplayedScore: roundScore(d.displayed),
		Breakdown:      d.report.Breakdown,
		SectionSignals: append([]types.SectionSignal(nil), d.report.SectionSignals...),
		JobKeywords:    append([]string(nil), d.report.JobKeywords...),
		ScoredAt:       d.report.ScoredAt,
		Pending:        d.pending != nil,
		Animating:      d.anim != nil,
		Passes:         d.passes,
	}
	if d.feedback != nil {
		fb := *d.feedback
		s.Feedback = &fb
	}
	if d.report.KeywordMatches != nil {
		km := *d.report.KeywordMatches
		s.KeywordMatches = &km
	}
	return s
}
