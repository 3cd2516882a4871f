package coordinator

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// manualClock fires timers only when Advance moves time past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
	delays []time.Duration
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due timers in deadline order on the caller's goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// Delays returns every duration passed to AfterFunc, excluding exclude.
func (c *manualClock) Delays(exclude time.Duration) []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, d := range c.delays {
		if d != exclude {
			out = append(out, d)
		}
	}
	return out
}

func TestSchedulerCancelAndStop(t *testing.T) {
	clock := newManualClock()
	s := NewScheduler(clock)

	var fired []string
	a := s.Schedule(time.Second, func() { fired = append(fired, "a") })
	s.Schedule(2*time.Second, func() { fired = append(fired, "b") })
	if !s.Cancel(a) {
		t.Fatalf("expected cancel of pending timer to succeed")
	}
	if s.Cancel(a) {
		t.Fatalf("expected second cancel to report false")
	}
	clock.Advance(2 * time.Second)
	if len(fired) != 1 || fired[0] != "b" {
		t.Fatalf("expected only b to fire, got %v", fired)
	}

	s.Schedule(time.Second, func() { fired = append(fired, "c") })
	s.Stop()
	if id := s.Schedule(time.Second, func() { fired = append(fired, "d") }); id != 0 {
		t.Fatalf("expected schedule after stop to be refused, got id %d", id)
	}
	clock.Advance(time.Minute)
	if len(fired) != 1 {
		t.Fatalf("expected no timers after stop, got %v", fired)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}

func TestSchedulerStaleFireIsNoop(t *testing.T) {
	clock := newManualClock()
	s := NewScheduler(clock)
	ran := false
	id := s.Schedule(time.Second, func() { ran = true })
	// The underlying timer fires but the entry was cancelled first.
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
	clock.Advance(time.Second)
	if ran {
		t.Fatalf("expected stale timer to be ignored")
	}
}
