package task

import (
	"context"
	"time"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

type taskKey struct{}

// FromContext returns the task that owns ctx, if any. Work functions receive
// a context carrying their own task; Launch uses it to discover the parent.
func FromContext(ctx context.Context) (*Task, bool) {
	t, ok := ctx.Value(taskKey{}).(*Task)
	return t, ok
}

// Checkpoint is a cooperative cancellation check. It returns nil while the
// task may keep running, and the task's cancellation signal once ctx is
// cancelled. Work functions should call it at their suspend points.
func Checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return cancellationSignal(ctx)
	default:
		return nil
	}
}

// Sleep suspends for d, waking early with the cancellation signal if the
// task is cancelled. It is the canonical timed suspend point.
func Sleep(ctx context.Context, d time.Duration) error {
	clk := clockFrom(ctx)
	select {
	case <-clk.After(d):
		return nil
	case <-ctx.Done():
		return cancellationSignal(ctx)
	}
}

// cancellationSignal converts a cancelled context into the benign
// cancellation error carried as its cause.
func cancellationSignal(ctx context.Context) error {
	cause := context.Cause(ctx)
	if ce, ok := cause.(*tserrors.CancellationError); ok {
		return ce
	}
	return tserrors.Cancelled("context cancelled", cause)
}

func clockFrom(ctx context.Context) Clock {
	if t, ok := FromContext(ctx); ok {
		return t.clock
	}
	return SystemClock{}
}
