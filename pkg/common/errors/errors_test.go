package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(Cancelled("stop requested", nil)) {
		t.Error("CancellationError should be recognized")
	}
	if !IsCancellation(context.Canceled) {
		t.Error("context.Canceled should be recognized")
	}
	if IsCancellation(stderrors.New("boom")) {
		t.Error("ordinary error misclassified as cancellation")
	}
	if IsCancellation(nil) {
		t.Error("nil misclassified as cancellation")
	}
}

func TestCancellationCause(t *testing.T) {
	cause := stderrors.New("sibling exploded")
	err := Cancelled("sibling failed", cause)
	if !stderrors.Is(err, cause) {
		t.Error("cause should be reachable via Unwrap")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(&TimeoutError{Limit: time.Second}) {
		t.Error("TimeoutError should be recognized")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("DeadlineExceeded should be recognized")
	}
	if IsTimeout(stderrors.New("boom")) {
		t.Error("ordinary error misclassified as timeout")
	}
}

func TestAggregateCollapsesWithoutSecondaries(t *testing.T) {
	primary := stderrors.New("X")
	if got := Aggregate(primary); got != primary {
		t.Errorf("expected primary returned unchanged, got %v", got)
	}
	if Aggregate(nil, stderrors.New("Y")) != nil {
		t.Error("nil primary should yield nil")
	}
}

func TestAggregateOrderAndUnwrap(t *testing.T) {
	primary := stderrors.New("X")
	y, z := stderrors.New("Y"), stderrors.New("Z")

	err := Aggregate(primary, y, z)
	if !stderrors.Is(err, primary) {
		t.Error("aggregate should match its primary")
	}
	sec := Secondary(err)
	if len(sec) != 2 || sec[0] != y || sec[1] != z {
		t.Errorf("secondary order not preserved: %v", sec)
	}

	// Aggregating on top of an aggregate appends.
	w := stderrors.New("W")
	err = Aggregate(err, w)
	sec = Secondary(err)
	if len(sec) != 3 || sec[2] != w {
		t.Errorf("append to existing aggregate failed: %v", sec)
	}
	if !stderrors.Is(err, primary) {
		t.Error("primary identity lost after append")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("channel", "capacity", -1, "must be positive").
		WithHint("capacity bounds the buffer")
	if !IsValidationError(err) {
		t.Fatal("expected ValidationError")
	}
	if err.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}
