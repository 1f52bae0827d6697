package task

// Scheduler executes a task's work on some worker. The task tree only
// requires that scheduled work eventually runs; it never blocks the caller
// of Schedule.
type Scheduler interface {
	// Schedule arranges for run to be executed. It must not block.
	Schedule(run func())
}

// goScheduler runs every scheduled work item on its own goroutine.
type goScheduler struct{}

func (goScheduler) Schedule(run func()) { go run() }

// DefaultScheduler is the scheduler used when none is configured: every task
// runs on its own goroutine.
var DefaultScheduler Scheduler = goScheduler{}
