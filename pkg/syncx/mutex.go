package syncx

import (
	"context"
	"sync"
	"time"

	"github.com/vparekh/treescope/pkg/metrics"
)

// Mutex is a mutual-exclusion primitive that suspends waiters instead of
// blocking a worker thread in a spin loop. Ownership is handed to waiters in
// strict FIFO order, and waiting can be abandoned via context cancellation.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []*mutexWaiter

	name string
	reg  *metrics.Registry
}

type mutexWaiter struct {
	ready chan struct{}
}

// MutexConfig configures a Mutex.
type MutexConfig struct {
	// Name labels the mutex in metrics.
	Name string

	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// NewMutex creates an unlocked Mutex without instrumentation.
func NewMutex() *Mutex {
	return &Mutex{}
}

// NewMutexWithConfig creates an unlocked Mutex with the given configuration.
func NewMutexWithConfig(cfg MutexConfig) *Mutex {
	m := &Mutex{name: cfg.Name}
	m.reg = cfg.Metrics.Resolve()
	return m
}

// Lock acquires the mutex, suspending until it is available or ctx is
// cancelled. On cancellation the waiter is removed from the queue and the
// context's error is returned; a grant that raced with the cancellation is
// passed on to the next waiter.
func (m *Mutex) Lock(ctx context.Context) error {
	m.mu.Lock()
	if !m.locked && len(m.waiters) == 0 {
		m.locked = true
		m.mu.Unlock()
		m.setHeld(1)
		return nil
	}

	w := &mutexWaiter{ready: make(chan struct{})}
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	m.addWaiting(1)
	start := time.Now()
	defer func() {
		m.addWaiting(-1)
		m.observeWait(time.Since(start))
	}()

	select {
	case <-w.ready:
		m.setHeld(1)
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		for i, q := range m.waiters {
			if q == w {
				m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
				m.mu.Unlock()
				return context.Cause(ctx)
			}
		}
		// Grant arrived while we were cancelling; hand the lock onward.
		m.unlockLocked()
		m.mu.Unlock()
		return context.Cause(ctx)
	}
}

// TryLock acquires the mutex without suspending. It fails when the mutex is
// held or when waiters are queued, preserving FIFO fairness.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked || len(m.waiters) > 0 {
		return false
	}
	m.locked = true
	m.setHeld(1)
	return true
}

// Unlock releases the mutex, handing it to the oldest waiter if any. It
// panics if the mutex is not locked.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("syncx: unlock of unlocked mutex")
	}
	m.unlockLocked()
	m.mu.Unlock()
	m.setHeldFromState()
}

// unlockLocked hands the lock to the next waiter or releases it. Must be
// called with m.mu held and m.locked true.
func (m *Mutex) unlockLocked() {
	if len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		close(w.ready)
		return
	}
	m.locked = false
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Waiters returns the number of suspended waiters.
func (m *Mutex) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

func (m *Mutex) setHeld(v float64) {
	if m.reg != nil {
		m.reg.SyncHeld.WithLabelValues("mutex", m.name).Set(v)
	}
}

func (m *Mutex) setHeldFromState() {
	if m.reg != nil {
		v := 0.0
		if m.Locked() {
			v = 1.0
		}
		m.reg.SyncHeld.WithLabelValues("mutex", m.name).Set(v)
	}
}

func (m *Mutex) addWaiting(d float64) {
	if m.reg != nil {
		m.reg.SyncWaiting.WithLabelValues("mutex", m.name).Add(d)
	}
}

func (m *Mutex) observeWait(d time.Duration) {
	if m.reg != nil {
		m.reg.SyncWaitTime.WithLabelValues("mutex", m.name).Observe(d.Seconds())
	}
}
