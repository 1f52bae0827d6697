package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
	"github.com/vparekh/treescope/pkg/metrics"
)

var nextID atomic.Uint64

// Task is a node in the task tree. A task owns the lifecycle of its
// children: it cannot complete while any child is non-terminal, cancelling
// it cancels every descendant, and child failures flow through it according
// to the supervisory flag.
type Task struct {
	id          uint64
	name        string
	supervisory bool
	deferred    bool

	sched Scheduler
	clock Clock
	reg   *metrics.Registry
	scope string

	ctx    context.Context
	cancel context.CancelCauseFunc
	start  time.Time

	mu        sync.Mutex
	state     State
	parent    *Task
	attached  bool
	children  map[uint64]*Task
	cause     *tserrors.CancellationError
	failure   error   // first ordinary failure observed in this scope
	pending   []error // later failures, arrival order
	bodyDone  bool
	notified  bool // primary failure has been reported to the parent
	finalized bool
	outcome   error
	done      chan struct{}
}

// ID returns the task's process-unique identifier.
func (t *Task) ID() uint64 { return t.id }

// Name returns the task's label, which may be empty.
func (t *Task) Name() string { return t.name }

// Supervisory reports whether this task contains its children's failures.
func (t *Task) Supervisory() bool { return t.supervisory }

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the task's terminal outcome: nil while the task is not
// terminal or when it completed normally, the (possibly aggregated) failure
// when it failed, and the cancellation signal when it was cancelled.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Terminal() {
		return nil
	}
	return t.outcome
}

func newTask(base context.Context, parent *Task, o Options, deferred bool) *Task {
	t := &Task{
		id:       nextID.Add(1),
		name:     o.Name,
		deferred: deferred,
		parent:   parent,
		children: make(map[uint64]*Task),
		done:     make(chan struct{}),
	}

	if parent != nil {
		t.supervisory = parent.supervisory
		t.sched = parent.sched
		t.clock = parent.clock
		t.reg = parent.reg
		t.scope = parent.scope
	} else {
		t.sched = DefaultScheduler
		t.clock = SystemClock{}
		t.scope = "default"
	}
	if o.Supervisory != nil {
		t.supervisory = *o.Supervisory
	}
	if o.Scheduler != nil {
		t.sched = o.Scheduler
	}
	if o.Clock != nil {
		t.clock = o.Clock
	}
	if o.Metrics != nil {
		t.reg = o.Metrics
	}
	if o.Name != "" {
		t.scope = o.Name
	}
	t.start = t.clock.Now()

	cctx, cancel := context.WithCancelCause(base)
	t.cancel = cancel
	t.ctx = context.WithValue(cctx, taskKey{}, t)
	return t
}

func launchTask(ctx context.Context, body func(context.Context) error, deferred bool, opts []Option) *Task {
	if body == nil {
		panic("task: nil work")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	parent, _ := FromContext(ctx)
	t := newTask(ctx, parent, o, deferred)
	if parent != nil {
		t.attached = parent.addChild(t)
		if !t.attached {
			t.cancelInternal(tserrors.Cancelled("parent finished", nil))
		}
	}

	if t.reg != nil {
		kind := "launch"
		if deferred {
			kind = "async"
		}
		t.reg.TasksLaunched.WithLabelValues(t.scope, kind).Inc()
		t.reg.TasksActive.WithLabelValues(t.scope).Inc()
	}

	t.sched.Schedule(func() { t.run(body) })
	return t
}

// addChild registers c under p. Returns false when p already finalized, in
// which case c runs detached and immediately cancelled.
func (p *Task) addChild(c *Task) bool {
	p.mu.Lock()
	if p.finalized {
		p.mu.Unlock()
		return false
	}
	p.children[c.id] = c
	cause := p.cause
	p.mu.Unlock()

	if cause != nil {
		c.cancelInternal(cause)
	}
	return true
}

func (t *Task) run(body func(context.Context) error) {
	t.mu.Lock()
	t.advanceLocked(StateActive)
	t.mu.Unlock()

	t.finishBody(t.invoke(body))
}

func (t *Task) invoke(body func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return body(t.ctx)
}

// finishBody records the outcome of the task's own work and starts
// finalization. Ordinary failures cancel the children and are reported to
// the parent immediately; cancellations terminate the scope benignly.
func (t *Task) finishBody(err error) {
	switch {
	case err == nil:
		t.mu.Lock()
		t.bodyDone = true
		t.advanceLocked(StateCompleting)
		t.mu.Unlock()

	case tserrors.IsCancellation(err):
		t.mu.Lock()
		if t.cause == nil {
			if ce, ok := err.(*tserrors.CancellationError); ok {
				t.cause = ce
			} else {
				t.cause = tserrors.Cancelled("work cancelled", err)
			}
		}
		t.bodyDone = true
		t.advanceLocked(StateCancelling)
		kids := t.childSnapshotLocked()
		cause := t.cause
		t.mu.Unlock()

		t.cancel(cause)
		for _, c := range kids {
			c.cancelInternal(cause)
		}

	default:
		t.failLocally(err)
		t.mu.Lock()
		t.bodyDone = true
		t.mu.Unlock()
	}

	t.maybeFinalize()
}

// failLocally handles an ordinary failure raised by this task's own work:
// record it, cancel the children, and report the primary failure to the
// parent at failure time so siblings are cancelled promptly.
func (t *Task) failLocally(err error) {
	t.mu.Lock()
	first := t.failure == nil
	if first {
		t.failure = err
	} else {
		t.pending = append(t.pending, err)
	}
	t.advanceLocked(StateCancelling)
	kids := t.childSnapshotLocked()
	var parent *Task
	if first && !t.notified && t.attached {
		t.notified = true
		parent = t.parent
	}
	t.mu.Unlock()

	ce := tserrors.Cancelled("task failed", err)
	t.cancel(ce)
	for _, c := range kids {
		c.cancelInternal(ce)
	}
	if parent != nil {
		parent.childFailed(t, err)
	}
}

// childFailed is invoked on a parent when a child's primary failure arrives.
// A supervisory parent absorbs it; otherwise the parent records the failure
// (first one wins, later ones accumulate in arrival order) and cancels the
// remaining children.
func (p *Task) childFailed(from *Task, err error) {
	p.mu.Lock()
	if p.finalized || p.supervisory {
		p.mu.Unlock()
		return
	}
	if p.failure == nil {
		p.failure = err
	} else {
		p.pending = append(p.pending, err)
	}
	p.advanceLocked(StateCancelling)
	if p.cause == nil {
		p.cause = tserrors.Cancelled("child failed", err)
	}
	kids := p.childSnapshotLocked()
	cause := p.cause
	p.mu.Unlock()

	p.cancel(cause)
	siblingCause := tserrors.Cancelled("sibling failed", err)
	for _, c := range kids {
		if c == from {
			continue
		}
		c.cancelInternal(siblingCause)
	}
}

// childTerminal is invoked on a parent when a child reaches a terminal
// state. Secondary failures the child accumulated ride along so aggregation
// preserves arrival order across the subtree.
func (p *Task) childTerminal(c *Task, failed bool, secondaries []error) {
	p.mu.Lock()
	if _, ok := p.children[c.id]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.children, c.id)
	if failed && !p.supervisory && len(secondaries) > 0 {
		p.pending = append(p.pending, secondaries...)
	}
	p.mu.Unlock()

	p.maybeFinalize()
}

// cancelInternal implements the cancellation protocol: record the cause
// once, move to Cancelling, cancel the context, and recursively cancel all
// children with the same reason. Idempotent; never touches the parent.
func (t *Task) cancelInternal(ce *tserrors.CancellationError) {
	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		return
	}
	if t.cause == nil {
		t.cause = ce
	}
	t.advanceLocked(StateCancelling)
	kids := t.childSnapshotLocked()
	cause := t.cause
	t.mu.Unlock()

	t.cancel(cause)
	for _, c := range kids {
		c.cancelInternal(cause)
	}
	t.maybeFinalize()
}

// maybeFinalize moves the task to its terminal state once its own work is
// done and every child is terminal. Failures beat cancellation; a failing
// fire-and-forget root is delivered to the unhandled-failure handler
// synchronously before the transition to Failed.
func (t *Task) maybeFinalize() {
	t.mu.Lock()
	if t.finalized || !t.bodyDone || len(t.children) > 0 {
		t.mu.Unlock()
		return
	}
	t.finalized = true

	var final State
	var outcome error
	switch {
	case t.failure != nil:
		final = StateFailed
		outcome = tserrors.Aggregate(t.failure, t.pending...)
	case t.cause != nil:
		final = StateCancelled
		outcome = t.cause
	default:
		final = StateCompleted
	}
	t.outcome = outcome
	// Detached children (launched after their parent finalized) count as
	// roots here: nothing upstream can observe their failure.
	deliver := final == StateFailed && !t.attached && !t.deferred
	t.mu.Unlock()

	if deliver {
		currentFailureHandler()(t, outcome)
		if t.reg != nil {
			t.reg.UnhandledFailures.WithLabelValues(t.scope).Inc()
		}
	}

	t.mu.Lock()
	t.advanceLocked(final)
	close(t.done)
	t.mu.Unlock()

	// Release context resources held by this node.
	t.cancel(tserrors.Cancelled("task finished", nil))

	if t.reg != nil {
		t.reg.TasksActive.WithLabelValues(t.scope).Dec()
		t.reg.TaskDuration.WithLabelValues(t.scope).Observe(t.clock.Now().Sub(t.start).Seconds())
		switch final {
		case StateCompleted:
			t.reg.TasksCompleted.WithLabelValues(t.scope).Inc()
		case StateFailed:
			t.reg.TasksFailed.WithLabelValues(t.scope).Inc()
		case StateCancelled:
			t.reg.TasksCancelled.WithLabelValues(t.scope).Inc()
		}
	}

	if t.attached && t.parent != nil {
		p := t.parent
		if final == StateFailed {
			t.mu.Lock()
			notified := t.notified
			t.notified = true
			primary, pending := t.failure, t.pending
			t.mu.Unlock()

			if !notified {
				p.childFailed(t, primary)
			}
			p.childTerminal(t, true, pending)
		} else {
			p.childTerminal(t, false, nil)
		}
	}
}

// advanceLocked moves the state forward; backward transitions are ignored.
func (t *Task) advanceLocked(s State) {
	if s > t.state {
		t.state = s
	}
}

func (t *Task) childSnapshotLocked() []*Task {
	kids := make([]*Task, 0, len(t.children))
	for _, c := range t.children {
		kids = append(kids, c)
	}
	return kids
}
