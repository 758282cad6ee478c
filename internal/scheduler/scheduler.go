// Package scheduler runs delayed one-shot tasks keyed by an owner id.
// Scheduling a task under a key that already has one pending replaces the
// old task, so a superseded run can never fire a stale callback.
package scheduler

import (
	"sync"
	"time"
)

type Scheduler struct {
	mu      sync.Mutex
	pending map[int64]*time.Timer
	stopped bool
}

func New() *Scheduler {
	return &Scheduler{
		pending: make(map[int64]*time.Timer),
	}
}

// Schedule runs fn after delay under the given key. Any task already
// pending for the key is cancelled first.
func (s *Scheduler) Schedule(key int64, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if t, ok := s.pending[key]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A replacement may have been scheduled between the timer firing
		// and this goroutine acquiring the lock.
		if s.pending[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = timer
}

// Cancel drops any pending task for the key. Returns whether one existed.
func (s *Scheduler) Cancel(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.pending, key)
	return true
}

// Pending reports whether a task is waiting under the key.
func (s *Scheduler) Pending(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending task and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
	s.stopped = true
}
