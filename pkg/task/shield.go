package task

import (
	"context"

	"github.com/vparekh/treescope/pkg/common/contextx"
)

// Shield runs fn with a context that ignores the enclosing task's
// cancellation, restoring normal cancellation sensitivity on return. Inside
// fn, Checkpoint is a no-op and Sleep runs to completion. Use it for cleanup
// sections that must finish even while the task is cancelling.
func Shield(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(contextx.Detach(ctx))
}
