package recalc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func TestManualScheduler_FiresInDeadlineOrder(t *testing.T) {
	s := NewManualScheduler(epoch)
	var order []string

	s.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "b1") })
	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "b2") })

	s.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b1", "b2"}, order)
	assert.Equal(t, epoch.Add(25*time.Millisecond), s.Now())
	assert.Equal(t, 1, s.Pending())

	s.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestManualScheduler_ClockAtCallbackTime(t *testing.T) {
	s := NewManualScheduler(epoch)
	var seen time.Time

	s.AfterFunc(40*time.Millisecond, func() { seen = s.Now() })
	s.Advance(time.Second)

	assert.Equal(t, epoch.Add(40*time.Millisecond), seen)
	assert.Equal(t, epoch.Add(time.Second), s.Now())
}

func TestManualScheduler_NestedScheduling(t *testing.T) {
	s := NewManualScheduler(epoch)
	ticks := 0

	var tick func()
	tick = func() {
		ticks++
		s.AfterFunc(10*time.Millisecond, tick)
	}
	s.AfterFunc(10*time.Millisecond, tick)

	s.Advance(55 * time.Millisecond)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, s.Pending())
}

func TestManualScheduler_Stop(t *testing.T) {
	s := NewManualScheduler(epoch)
	fired := false

	timer := s.AfterFunc(10*time.Millisecond, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	s.Advance(time.Second)
	assert.False(t, fired)

	done := s.AfterFunc(0, func() {})
	s.Advance(0)
	assert.False(t, done.Stop())
}

func TestClockScheduler(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(epoch)
	s := NewClockScheduler(mock)
	assert.Equal(t, epoch, s.Now())

	var fired, stopped atomic.Int32
	s.AfterFunc(10*time.Millisecond, func() { fired.Add(1) })
	timer := s.AfterFunc(10*time.Millisecond, func() { stopped.Add(1) })
	assert.True(t, timer.Stop())

	mock.Add(10 * time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(0), stopped.Load())
	assert.Equal(t, epoch.Add(10*time.Millisecond), s.Now())
}

func TestSystemScheduler(t *testing.T) {
	s := SystemScheduler()
	assert.WithinDuration(t, time.Now(), s.Now(), time.Second)

	done := make(chan struct{})
	s.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}
}
