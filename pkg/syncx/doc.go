// Package syncx provides suspending synchronization primitives for tasks.
//
// Both primitives suspend the caller instead of spinning, honor context
// cancellation while waiting, and grant ownership to waiters in FIFO order.
// Shared mutable state accessed from multiple tasks must only be touched
// while holding the appropriate primitive; no other visibility guarantee is
// made.
package syncx
