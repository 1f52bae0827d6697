package testutil

import (
	"sort"
	"sync"
	"time"
)

// MockClock is a controllable clock for deterministic timer tests. It
// satisfies the task package's Clock interface without importing it.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewMockClock creates a MockClock starting at the given time. A zero start
// uses the current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After returns a channel that fires once the clock has been advanced past
// the deadline. Non-positive durations fire immediately.
func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- m.now
		return ch
	}
	m.timers = append(m.timers, &mockTimer{deadline: m.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward and fires expired timers in deadline order.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	var remaining []*mockTimer
	var fired []*mockTimer
	for _, tm := range m.timers {
		if !tm.deadline.After(now) {
			fired = append(fired, tm)
		} else {
			remaining = append(remaining, tm)
		}
	}
	m.timers = remaining
	m.mu.Unlock()

	for _, tm := range fired {
		tm.ch <- now
	}
}

// MockScheduler records scheduled work for manual draining, so the test
// controls when task bodies run.
type MockScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// NewMockScheduler creates an empty MockScheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// Schedule enqueues run without executing it.
func (s *MockScheduler) Schedule(run func()) {
	s.mu.Lock()
	s.queue = append(s.queue, run)
	s.mu.Unlock()
}

// Drain runs all queued work, including work scheduled while draining, and
// returns the number of items executed.
func (s *MockScheduler) Drain() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}
		run := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		run()
		n++
	}
}

// Pending returns the number of queued work items.
func (s *MockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
