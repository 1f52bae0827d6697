/*
Package treescope provides structured-concurrency primitives for Go: a task
tree with cooperative cancellation, failure aggregation, and suspending
synchronization and communication primitives.

Task Tree (pkg/task):
  - Launch / Async: fire-and-forget and value-producing tasks
  - Parent/child lifecycle with recursive cancellation
  - Supervisory scopes that contain child failures
  - Timeout wrappers and non-cancellable shields

Synchronization (pkg/syncx):
  - Mutex: context-aware, FIFO-fair mutual exclusion
  - Semaphore: counting permits with FIFO-fair waiting

Communication (pkg/channel):
  - Bounded FIFO channel with configurable overflow strategies

Scheduling (pkg/executor, pkg/schedule):
  - executor: fixed worker pool backing task execution
  - schedule: interval and cron-based task launching

Example usage:

	import "github.com/vparekh/treescope/pkg/task"

	h := task.Launch(ctx, func(ctx context.Context) error {
		return doWork(ctx)
	})
	if err := h.Join(ctx); err != nil {
		// caller was cancelled while waiting
	}
*/
package treescope
