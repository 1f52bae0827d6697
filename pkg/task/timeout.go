package task

import (
	"context"
	"time"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

// WithTimeout runs work as a child task and races it against limit. If the
// work completes first its value is returned and the task is not cancelled.
// On expiry the task is cancelled and a *errors.TimeoutError is returned.
func WithTimeout[T any](ctx context.Context, limit time.Duration, work func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	d := Async(ctx, work, opts...)

	select {
	case <-d.Handle.t.done:
	case <-d.Handle.t.clock.After(limit):
		te := &tserrors.TimeoutError{Limit: limit}
		d.Handle.t.cancelInternal(tserrors.Cancelled("timed out", te))
		<-d.Handle.t.done
		return zero, te
	case <-ctx.Done():
		cause := context.Cause(ctx)
		d.Handle.t.cancelInternal(tserrors.Cancelled("caller cancelled", cause))
		<-d.Handle.t.done
		return zero, cause
	}
	return d.Await(ctx)
}

// WithTimeoutOrNone is the sentinel variant of WithTimeout: on expiry it
// reports ok=false with a nil error instead of raising a timeout failure.
// Ordinary failures of the work are still returned.
func WithTimeoutOrNone[T any](ctx context.Context, limit time.Duration, work func(ctx context.Context) (T, error), opts ...Option) (T, bool, error) {
	var zero T
	v, err := WithTimeout(ctx, limit, work, opts...)
	if err != nil {
		if tserrors.IsTimeout(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return v, true, nil
}
