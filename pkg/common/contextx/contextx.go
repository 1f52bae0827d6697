// Package contextx provides small context helpers used across treescope.
package contextx

import (
	"context"
	"errors"
	"time"
)

// IsCanceled returns true if the context has been canceled.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a deadline.
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// Detach returns a context that carries the values of ctx but is never
// canceled by it. Used by task.Shield to run cleanup sections that must
// complete even while the enclosing task is cancelling.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// WithTimeoutOrCancel creates a context canceled either when the parent is
// canceled or when the timeout elapses, whichever comes first.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
