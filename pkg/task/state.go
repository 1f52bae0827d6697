package task

// State describes where a task is in its lifecycle. Transitions are
// monotonic: a task only ever moves to a higher-ordered state, and exactly
// one terminal state is reached.
type State int32

const (
	// StateNew means the task has been created but its work has not started.
	StateNew State = iota

	// StateActive means the task's work is running (or eligible to run).
	StateActive

	// StateCompleting means the work returned successfully and the task is
	// waiting for its children to reach a terminal state.
	StateCompleting

	// StateCancelling means cancellation has been requested and is being
	// propagated to children.
	StateCancelling

	// StateCancelled is terminal: the task was cancelled.
	StateCancelled

	// StateCompleted is terminal: the task and all children completed normally.
	StateCompleted

	// StateFailed is terminal: the task terminated with an ordinary failure.
	StateFailed
)

// Terminal reports whether s is a terminal state.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StateCompleting:
		return "completing"
	case StateCancelling:
		return "cancelling"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
