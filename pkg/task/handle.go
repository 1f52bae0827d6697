package task

import (
	"context"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

// Handle controls a launched task.
type Handle struct {
	t *Task
}

// Task returns the underlying task node.
func (h *Handle) Task() *Task { return h.t }

// Cancel requests cancellation of the task and, recursively, of all its
// children. The first reason wins; later calls are no-ops. Cancellation
// never affects the task's parent.
func (h *Handle) Cancel(reason error) {
	ce, ok := reason.(*tserrors.CancellationError)
	if !ok {
		ce = tserrors.Cancelled("cancel requested", reason)
	}
	h.t.cancelInternal(ce)
}

// Join suspends the caller until the task is terminal. The returned error
// reflects only the caller's context; the task's own outcome is available
// via Err.
func (h *Handle) Join(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-h.t.done:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Err returns the task's terminal outcome; see Task.Err.
func (h *Handle) Err() error { return h.t.Err() }

// State returns the task's current state.
func (h *Handle) State() State { return h.t.State() }

// IsActive reports whether the task has started and is not yet terminal.
func (h *Handle) IsActive() bool {
	s := h.t.State()
	return s >= StateActive && !s.Terminal()
}

// IsCancelled reports whether the task is cancelling or was cancelled.
func (h *Handle) IsCancelled() bool {
	s := h.t.State()
	return s == StateCancelling || s == StateCancelled
}

// IsCompleted reports whether the task reached any terminal state.
func (h *Handle) IsCompleted() bool { return h.t.State().Terminal() }

// Done returns a channel closed when the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.t.done }
