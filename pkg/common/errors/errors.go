// Package errors defines the failure taxonomy shared across treescope:
// benign cancellation signals, ordinary failures, timeout failures, and
// aggregated failures carrying secondary errors.
package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed indicates that an operation was attempted on a closed resource.
	ErrClosed = errors.New("resource is closed")

	// ErrFull indicates that a bounded buffer rejected a value because it was full.
	ErrFull = errors.New("buffer is full")

	// ErrStopped indicates that an operation was attempted on a stopped component.
	ErrStopped = errors.New("component is stopped")
)

// CancellationError is the benign termination signal delivered to a task when
// it, or one of its ancestors, is cancelled. It must not be reported as an
// ordinary failure unless deliberately re-raised.
type CancellationError struct {
	// Reason describes why the task was cancelled.
	Reason string

	// Cause is the originating error, if any (for example a sibling's failure).
	Cause error
}

// Cancelled constructs a CancellationError with the given reason and
// originating cause. The cause may be nil.
func Cancelled(reason string, cause error) *CancellationError {
	return &CancellationError{Reason: reason, Cause: cause}
}

func (e *CancellationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cancelled: %s: %v", e.Reason, e.Cause)
	}
	return "cancelled: " + e.Reason
}

func (e *CancellationError) Unwrap() error { return e.Cause }

// IsCancellation reports whether err is a benign cancellation signal. Both
// treescope cancellation errors and context.Canceled qualify.
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce) || errors.Is(err, context.Canceled)
}

// TimeoutError is raised by bounded-time wrappers when the wrapped task does
// not complete within its limit.
type TimeoutError struct {
	// Limit is the bound that was exceeded.
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v", e.Limit)
}

// IsTimeout reports whether err represents a timeout, either a treescope
// TimeoutError or context.DeadlineExceeded.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded)
}

// AggregateError is an ordinary failure bundled with secondary failures that
// arrived after it within the same scope. The primary failure determines
// identity: Unwrap and error matching see the primary only.
type AggregateError struct {
	primary   error
	secondary []error
}

// Aggregate bundles a primary failure with secondary failures, preserving
// arrival order. With no secondaries it returns the primary unchanged. If the
// primary is already an AggregateError the secondaries are appended to it.
func Aggregate(primary error, secondary ...error) error {
	if primary == nil {
		return nil
	}
	if len(secondary) == 0 {
		return primary
	}
	if agg, ok := primary.(*AggregateError); ok {
		merged := make([]error, 0, len(agg.secondary)+len(secondary))
		merged = append(merged, agg.secondary...)
		merged = append(merged, secondary...)
		return &AggregateError{primary: agg.primary, secondary: merged}
	}
	return &AggregateError{primary: primary, secondary: append([]error(nil), secondary...)}
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%v (and %d more)", e.primary, len(e.secondary))
}

// Unwrap returns the primary failure.
func (e *AggregateError) Unwrap() error { return e.primary }

// Secondary returns the secondary failures in arrival order. The returned
// slice must not be modified.
func (e *AggregateError) Secondary() []error { return e.secondary }

// Secondary returns the secondary failures attached to err, or nil if err
// carries none.
func Secondary(err error) []error {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Secondary()
	}
	return nil
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Msg    string
	Hint   string
}

// NewValidationError constructs a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, msg string) *ValidationError {
	return &ValidationError{Module: module, Field: field, Value: value, Msg: msg}
}

// WithHint attaches a usage hint and returns the error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	s := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Msg)
	if e.Hint != "" {
		s += " (" + e.Hint + ")"
	}
	return s
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
