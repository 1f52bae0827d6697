package task

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/vparekh/treescope/internal/testutil"
	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

func TestWithTimeoutReturnsValueInTime(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	mc := testutil.NewMockClock(time.Time{})
	v, err := WithTimeout(ctx, time.Second, func(context.Context) (int, error) {
		return 42, nil
	}, WithClock(mc))

	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 42)
}

func TestWithTimeoutCancelsOnExpiry(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	mc := testutil.NewMockClock(time.Time{})
	started := make(chan struct{})
	observedCancel := make(chan struct{})

	go func() {
		<-started
		mc.Advance(time.Second)
	}()

	_, err := WithTimeout(ctx, time.Second, func(c context.Context) (int, error) {
		close(started)
		<-c.Done()
		close(observedCancel)
		return 0, Checkpoint(c)
	}, WithClock(mc))

	if !tserrors.IsTimeout(err) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	<-observedCancel
}

func TestWithTimeoutSurfacesWorkFailure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := stderrors.New("boom")
	_, err := WithTimeout(ctx, time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected work failure, got %v", err)
	}
	if tserrors.IsTimeout(err) {
		t.Fatal("work failure misreported as timeout")
	}
}

func TestWithTimeoutOrNone(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v, ok, err := WithTimeoutOrNone(ctx, time.Minute, func(context.Context) (string, error) {
		return "done", nil
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, "done")

	mc := testutil.NewMockClock(time.Time{})
	started := make(chan struct{})
	go func() {
		<-started
		mc.Advance(50 * time.Millisecond)
	}()

	_, ok, err = WithTimeoutOrNone(ctx, 50*time.Millisecond, func(c context.Context) (string, error) {
		close(started)
		<-c.Done()
		return "", Checkpoint(c)
	}, WithClock(mc))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)
}

func TestSleepWakesOnCancel(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	h := Launch(ctx, func(c context.Context) error {
		return Sleep(c, 10*time.Second)
	})

	h.Cancel(nil)
	testutil.AssertNoError(t, h.Join(ctx))
	testutil.AssertEqual(t, h.State(), StateCancelled)
}

func TestSleepCompletes(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	h := Launch(ctx, func(c context.Context) error {
		return Sleep(c, time.Millisecond)
	})
	testutil.AssertNoError(t, h.Join(ctx))
	testutil.AssertEqual(t, h.State(), StateCompleted)
}
