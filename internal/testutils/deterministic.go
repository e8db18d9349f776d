// Package testutils provides deterministic clocks, schedulers and a fake chat
// backend for flexchat tests.
package testutils

import (
	"sync"
	"time"
)

// DeterministicClock returns incrementing timestamps for stable test output.
// The first call returns 2025-01-01T00:00:01Z, then one second later per call.
type DeterministicClock struct {
	mu      sync.Mutex
	counter int64
}

// NewDeterministicClock creates a clock starting at 2025-01-01T00:00:00Z.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Now returns the next deterministic timestamp.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(c.counter) * time.Second)
}

// ScheduledCall is one callback registered with a ManualScheduler.
type ScheduledCall struct {
	Delay time.Duration
	Fn    func()
}

// ManualScheduler collects delayed callbacks and runs them only when told to.
// Its Schedule method matches the widget's scheduler signature.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []ScheduledCall
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule records fn to be run later.
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, ScheduledCall{Delay: delay, Fn: fn})
}

// Pending returns the number of callbacks not yet fired.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Delays returns the delays of all pending callbacks in registration order.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delays := make([]time.Duration, len(s.pending))
	for i, call := range s.pending {
		delays[i] = call.Delay
	}
	return delays
}

// Fire runs the pending callback at index i and removes it.
// It reports false when no such callback exists.
func (s *ManualScheduler) Fire(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.pending) {
		s.mu.Unlock()
		return false
	}
	call := s.pending[i]
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	s.mu.Unlock()

	call.Fn()
	return true
}

// FireAll runs every pending callback in registration order.
func (s *ManualScheduler) FireAll() {
	for s.Fire(0) {
	}
}
