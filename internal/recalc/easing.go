package recalc

import (
	"math"
	"time"
)

// EaseOutCubic maps linear progress t in [0,1] to 1-(1-t)^3. Inputs outside the range are clamped.
func EaseOutCubic(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := 1 - t
	return 1 - u*u*u
}

// tween eases a displayed value toward a target over a fixed window.
//
// A retarget keeps start and duration and records the eased progress already used
// as offset, so the remaining curve runs from the current value to the new target
// and still ends at the original deadline.
type tween struct {
	from     float64
	to       float64
	start    time.Time
	duration time.Duration
	offset   float64
}

func newTween(from float64, to int, start time.Time, duration time.Duration) *tween {
	return &tween{from: from, to: float64(to), start: start, duration: duration}
}

func (tw *tween) progress(now time.Time) float64 {
	if tw.duration <= 0 {
		return 1
	}
	return float64(now.Sub(tw.start)) / float64(tw.duration)
}

func (tw *tween) done(now time.Time) bool {
	return tw.progress(now) >= 1
}

func (tw *tween) valueAt(now time.Time) float64 {
	e := EaseOutCubic(tw.progress(now))
	if e >= 1 || tw.offset >= 1 {
		return tw.to
	}
	frac := (e - tw.offset) / (1 - tw.offset)
	if frac < 0 {
		frac = 0
	}
	return tw.from + (tw.to-tw.from)*frac
}

// retarget continues from the value shown at now toward a new target.
func (tw *tween) retarget(to int, now time.Time) *tween {
	return &tween{
		from:     tw.valueAt(now),
		to:       float64(to),
		start:    tw.start,
		duration: tw.duration,
		offset:   EaseOutCubic(tw.progress(now)),
	}
}

func roundScore(v float64) int {
	return int(math.Round(v))
}
