package ats

import (
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// Feedback messages, from largest gain to largest loss.
const (
	MsgSignificantImprovement = "Significant improvement in resume quality"
	MsgMeasurableImpact       = "Added measurable impact to your experience"
	MsgContentImprovement     = "Content improvement detected"
	MsgNeedsMoreDetail        = "Content may need more detail"
	MsgMinorAdjustment        = "Minor adjustment detected"
)

// FeedbackFor describes a score change. It returns nil when the score did not move.
func FeedbackFor(previous, next int, now time.Time) *types.Feedback {
	delta := next - previous
	if delta == 0 {
		return nil
	}

	var message string
	switch {
	case delta >= 5:
		message = MsgSignificantImprovement
	case delta >= 3:
		message = MsgMeasurableImpact
	case delta > 0:
		message = MsgContentImprovement
	case delta <= -5:
		message = MsgNeedsMoreDetail
	default:
		message = MsgMinorAdjustment
	}

	return &types.Feedback{
		Message:   message,
		Delta:     delta,
		Timestamp: now,
	}
}

// Tracker remembers the last computed score so each pass can be compared with the one before.
// A tracker without a baseline stays silent on its first observation.
type Tracker struct {
	last        int
	hasBaseline bool
}

// NewTracker returns a tracker whose first observation only sets the baseline.
func NewTracker() *Tracker {
	return &Tracker{}
}

// NewTrackerFrom returns a tracker that compares the first observation against baseline.
func NewTrackerFrom(baseline int) *Tracker {
	return &Tracker{last: baseline, hasBaseline: true}
}

// Observe records score and returns feedback relative to the previous score, if any.
func (t *Tracker) Observe(score int, now time.Time) *types.Feedback {
	if !t.hasBaseline {
		t.last = score
		t.hasBaseline = true
		return nil
	}
	fb := FeedbackFor(t.last, score, now)
	t.last = score
	return fb
}

// Last returns the most recently observed score and whether one exists.
func (t *Tracker) Last() (int, bool) {
	return t.last, t.hasBaseline
}
