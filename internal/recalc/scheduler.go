package recalc

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the callback
	// already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay and reports the current time.
// The driver takes all of its timing from a Scheduler so tests can control the clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// ClockScheduler schedules on a clock.Clock. Callbacks run on their own goroutine.
type ClockScheduler struct {
	clock clock.Clock
}

// NewClockScheduler returns a scheduler on c, or on the wall clock when c is nil.
func NewClockScheduler(c clock.Clock) ClockScheduler {
	if c == nil {
		c = clock.New()
	}
	return ClockScheduler{clock: c}
}

// SystemScheduler returns a scheduler on the wall clock.
func SystemScheduler() ClockScheduler {
	return NewClockScheduler(nil)
}

// AfterFunc wraps clock.Clock.AfterFunc.
func (s ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.clock.AfterFunc(d, f)
}

// Now returns the clock's current time.
func (s ClockScheduler) Now() time.Time {
	return s.clock.Now()
}

// ManualScheduler is a fake clock. Time only moves when Advance is called, and due
// callbacks run synchronously on the goroutine that calls Advance, in deadline
// order, including callbacks scheduled by earlier callbacks. clock.Mock starts each
// AfterFunc callback on a new goroutine, so a frame chain would not settle within
// one Mock.Add.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	s   *ManualScheduler
	at  time.Time
	seq uint64
	f   func()
}

// NewManualScheduler returns a fake clock starting at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// AfterFunc schedules f at Now()+d. A non-positive d fires on the next Advance.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Now returns the fake current time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward by d, running every callback that falls due in
// deadline order. Callbacks scheduled while advancing also run if they fall due
// before the new time.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.popDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		if next.at.After(s.now) {
			s.now = next.at
		}
		s.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of callbacks that have not run or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// popDue removes and returns the earliest timer due at or before target.
// Callers must hold s.mu.
func (s *ManualScheduler) popDue(target time.Time) *manualTimer {
	if len(s.timers) == 0 {
		return nil
	}
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].at.Equal(s.timers[j].at) {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].at.Before(s.timers[j].at)
	})
	first := s.timers[0]
	if first.at.After(target) {
		return nil
	}
	s.timers = s.timers[1:]
	return first
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for i, other := range t.s.timers {
		if other == t {
			t.s.timers = append(t.s.timers[:i], t.s.timers[i+1:]...)
			return true
		}
	}
	return false
}
