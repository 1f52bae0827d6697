package syncx

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vparekh/treescope/internal/testutil"
	"github.com/vparekh/treescope/pkg/common/errors"
	"github.com/vparekh/treescope/pkg/task"
)

func TestSemaphoreValidation(t *testing.T) {
	_, err := NewSemaphore(0)
	testutil.AssertError(t, err)
	if !errors.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	s, err := NewSemaphore(3)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s.Capacity(), 3)
	testutil.AssertEqual(t, s.InUse(), 0)
}

func TestSemaphoreAcquireRelease(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	s, err := NewSemaphore(2)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Acquire(ctx, 1))
	testutil.AssertNoError(t, s.Acquire(ctx, 1))
	testutil.AssertEqual(t, s.InUse(), 2)
	testutil.AssertEqual(t, s.TryAcquire(1), false)

	s.Release(1)
	testutil.AssertEqual(t, s.TryAcquire(1), true)
	s.Release(2)
	testutil.AssertEqual(t, s.InUse(), 0)
}

func TestSemaphoreCancelWhileWaiting(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	s, err := NewSemaphore(1)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Acquire(ctx, 1))

	waitCtx, waitCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Acquire(waitCtx, 1) }()

	time.Sleep(10 * time.Millisecond)
	waitCancel()
	testutil.AssertEqual(t, <-errCh, context.Canceled)
	s.Release(1)
}

func TestSemaphoreBoundsConcurrency(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const permits = 3
	s, err := NewSemaphore(permits)
	testutil.AssertNoError(t, err)

	var active, peak atomic.Int64

	h := task.Launch(ctx, func(c context.Context) error {
		for i := 0; i < 50; i++ {
			task.Launch(c, func(tc context.Context) error {
				if err := s.Acquire(tc, 1); err != nil {
					return err
				}
				defer s.Release(1)

				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
		}
		return nil
	})

	testutil.AssertNoError(t, h.Join(ctx))
	if got := peak.Load(); got > permits {
		t.Fatalf("concurrency exceeded permits: peak=%d", got)
	}
}
