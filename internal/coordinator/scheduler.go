package coordinator

import (
	"sync"
	"time"
)

// Scheduler owns the delayed actions of one session. After Stop, pending actions
// never run and Schedule refuses new ones.
type Scheduler struct {
	clock   Clock
	mu      sync.Mutex
	next    uint64
	timers  map[uint64]Timer
	stopped bool
}

// NewScheduler creates a scheduler on clock.
func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock, timers: make(map[uint64]Timer)}
}

// Schedule runs fn after d unless cancelled or stopped first. It returns 0 once
// the scheduler is stopped.
func (s *Scheduler) Schedule(d time.Duration, fn func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	if d < 0 {
		d = 0
	}
	s.next++
	id := s.next
	s.timers[id] = s.clock.AfterFunc(d, func() { s.fire(id, fn) })
	return id
}

// Cancel prevents a scheduled action from running. It reports whether the action was pending.
func (s *Scheduler) Cancel(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	t.Stop()
	return true
}

// Stop cancels every pending action and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of actions still waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) fire(id uint64, fn func()) {
	s.mu.Lock()
	if _, ok := s.timers[id]; !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()
	fn()
}
