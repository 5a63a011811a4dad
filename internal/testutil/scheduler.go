package testutil

import (
	"sync"
	"time"
)

// ManualTimer is one Every registration on a ManualScheduler.
type ManualTimer struct {
	Period time.Duration

	mu        sync.Mutex
	fn        func()
	cancelled bool
}

func (t *ManualTimer) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// FireAnyway runs the callback even after cancel, the way a ticker that
// already delivered a value would.
func (t *ManualTimer) FireAnyway() {
	t.fn()
}

// ManualScheduler fires registered callbacks only when Fire is called.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Every(period time.Duration, fn func()) func() {
	t := &ManualTimer{Period: period, fn: fn}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return func() {
		t.mu.Lock()
		t.cancelled = true
		t.mu.Unlock()
	}
}

// Fire runs every live timer once and returns how many ran.
func (s *ManualScheduler) Fire() int {
	n := 0
	for _, t := range s.Timers() {
		if t.Cancelled() {
			continue
		}
		t.fn()
		n++
	}
	return n
}

func (s *ManualScheduler) Timers() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ManualTimer, len(s.timers))
	copy(out, s.timers)
	return out
}

// Live counts timers that have not been cancelled.
func (s *ManualScheduler) Live() int {
	n := 0
	for _, t := range s.Timers() {
		if !t.Cancelled() {
			n++
		}
	}
	return n
}
