// Package task implements a structured-concurrency task tree with
// cooperative cancellation and failure propagation.
//
// Tasks form a tree: Launch and Async discover their parent from the
// context their work receives, and a parent cannot complete while any child
// is non-terminal. Cancelling a task cancels all of its descendants with
// the same reason, never its parent. An ordinary failure cancels the
// failing task's siblings, and once every child of the parent is terminal
// the first failure, with later ones attached in arrival order, propagates
// upward, unless the parent is supervisory, in which case it stops there.
//
// Cancellation is cooperative: work observes it through its context at
// suspend points (Checkpoint, Sleep, channel operations, lock acquisition)
// and terminates with a benign cancellation signal that is never reported
// as an error.
//
// A failure reaching a fire-and-forget root is delivered to the registered
// unhandled-failure handler exactly once, before the root becomes Failed.
// Failures of deferred tasks surface on Await instead.
package task
