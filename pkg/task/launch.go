package task

import (
	"context"
)

// Work is a unit of suspendable work. It observes cancellation through ctx
// at its suspend points (Checkpoint, Sleep, channel operations, lock
// acquisition) and returns the cancellation signal, an ordinary failure, or
// nil.
type Work func(ctx context.Context) error

// Launch starts a fire-and-forget task. If ctx carries a task, the new task
// becomes its child: the parent cannot complete before it, cancelling the
// parent cancels it, and its failures propagate to the parent per the
// supervisory flag. Without a parent the task is a root, and an unhandled
// failure is delivered to the registered failure handler.
func Launch(ctx context.Context, work Work, opts ...Option) *Handle {
	return &Handle{t: launchTask(ctx, work, false, opts)}
}

// Deferred is a task that produces a value retrievable via Await.
type Deferred[T any] struct {
	Handle
	result T
}

// Async starts a value-producing task. Failures of a root deferred task are
// not delivered to the failure handler; they surface on Await only.
func Async[T any](ctx context.Context, work func(ctx context.Context) (T, error), opts ...Option) *Deferred[T] {
	d := &Deferred[T]{}
	d.Handle.t = launchTask(ctx, func(c context.Context) error {
		v, err := work(c)
		if err == nil {
			d.result = v
		}
		return err
	}, true, opts)
	return d
}

// Await suspends the caller until the task is terminal, then returns the
// produced value or re-raises the stored failure. The observation is
// repeatable: every caller sees the same outcome.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-d.Handle.t.done:
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	}
	if err := d.Handle.t.Err(); err != nil {
		return zero, err
	}
	return d.result, nil
}
