package channel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vparekh/treescope/internal/testutil"
	tserrors "github.com/vparekh/treescope/pkg/common/errors"
)

func TestNewValidatesCapacity(t *testing.T) {
	if _, err := New[int](0); !tserrors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := New[int](-3); !tserrors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendReceiveOrder(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](4)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	for i := 0; i < 4; i++ {
		testutil.AssertNoError(t, ch.Send(ctx, i))
	}
	testutil.AssertEqual(t, ch.Len(), 4)

	for i := 0; i < 4; i++ {
		v, err := ch.Receive(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, v, i)
	}
	testutil.AssertEqual(t, ch.Len(), 0)
}

func TestBlockingSendResumesAfterReceive(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](5)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	var produced []int
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			if err := ch.Send(ctx, i); err != nil {
				return
			}
			mu.Lock()
			produced = append(produced, i)
			mu.Unlock()
		}
	}()

	// Producer fills the buffer and suspends on the sixth send.
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return ch.Blocked() == 1
	})
	mu.Lock()
	n := len(produced)
	mu.Unlock()
	testutil.AssertEqual(t, n, 5)

	// Draining resumes the producer; all ten values arrive in order.
	for i := 0; i < 10; i++ {
		v, err := ch.Receive(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, v, i)
	}
	<-done
}

func TestReceiveSuspendsUntilSend(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[string](1)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	got := make(chan string, 1)
	go func() {
		v, err := ch.Receive(ctx)
		if err == nil {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	testutil.AssertNoError(t, ch.Send(ctx, "hello"))
	testutil.AssertEqual(t, <-got, "hello")
}

func TestSendCancellation(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](1)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	testutil.AssertNoError(t, ch.Send(ctx, 1))

	sctx, scancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- ch.Send(sctx, 2)
	}()

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return ch.Blocked() == 1
	})
	scancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	testutil.AssertEqual(t, ch.Blocked(), 0)
}

func TestReceiveCancellation(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](1)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	rctx, rcancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		_, err := ch.Receive(rctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	rcancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDropStrategy(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var dropped []int
	ch, err := NewWithConfig(Config[int]{
		Capacity: 2,
		Strategy: Drop,
		OnDrop:   func(v int) { dropped = append(dropped, v) },
	})
	testutil.AssertNoError(t, err)
	defer ch.Close()

	for i := 0; i < 4; i++ {
		testutil.AssertNoError(t, ch.Send(ctx, i))
	}

	// Oldest values survive; the overflow was dropped.
	v, err := ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 0)
	v, err = ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 1)

	testutil.AssertEqual(t, len(dropped), 2)
	testutil.AssertEqual(t, ch.Stats().Dropped, 2)
}

func TestDropOldestStrategy(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var dropped []int
	ch, err := NewWithConfig(Config[int]{
		Capacity: 2,
		Strategy: DropOldest,
		OnDrop:   func(v int) { dropped = append(dropped, v) },
	})
	testutil.AssertNoError(t, err)
	defer ch.Close()

	for i := 0; i < 4; i++ {
		testutil.AssertNoError(t, ch.Send(ctx, i))
	}

	// Newest values survive.
	v, err := ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 2)
	v, err = ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 3)

	testutil.AssertEqual(t, len(dropped), 2)
	testutil.AssertEqual(t, dropped[0], 0)
	testutil.AssertEqual(t, dropped[1], 1)
}

func TestRejectStrategy(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := NewWithConfig(Config[int]{Capacity: 1, Strategy: Reject})
	testutil.AssertNoError(t, err)
	defer ch.Close()

	testutil.AssertNoError(t, ch.Send(ctx, 1))
	if err := ch.Send(ctx, 2); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestTrySendTryReceive(t *testing.T) {
	ch, err := New[int](1)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	_, ok, err := ch.TryReceive()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, false)

	testutil.AssertNoError(t, ch.TrySend(1))
	if err := ch.TrySend(2); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}

	v, ok, err := ch.TryReceive()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, 1)
}

func TestCloseDrainsBuffer(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](3)
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, ch.Send(ctx, 1))
	testutil.AssertNoError(t, ch.Send(ctx, 2))
	testutil.AssertNoError(t, ch.Close())
	testutil.AssertNoError(t, ch.Close()) // idempotent

	if err := ch.Send(ctx, 3); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	v, err := ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 1)
	v, err = ch.Receive(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 2)

	if _, err := ch.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseWakesWaiters(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](1)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, ch.Send(ctx, 1))

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- ch.Send(ctx, 2)
	}()
	recvErr := make(chan error, 1)
	ch2, err := New[int](1)
	testutil.AssertNoError(t, err)
	go func() {
		_, err := ch2.Receive(ctx)
		recvErr <- err
	}()

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return ch.Blocked() == 1
	})
	time.Sleep(10 * time.Millisecond)
	testutil.AssertNoError(t, ch.Close())
	testutil.AssertNoError(t, ch2.Close())

	if err := <-sendErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for sender, got %v", err)
	}
	if err := <-recvErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for receiver, got %v", err)
	}
}

func TestFIFOWakeOrder(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](1)
	testutil.AssertNoError(t, err)
	defer ch.Close()
	testutil.AssertNoError(t, ch.Send(ctx, 0))

	// Enqueue three senders one at a time so the queue order is known.
	for i := 1; i <= 3; i++ {
		go func(v int) {
			ch.Send(ctx, v)
		}(i)
		testutil.Eventually(t, testutil.TestTimeout, func() bool {
			return ch.Blocked() == i
		})
	}

	for i := 0; i <= 3; i++ {
		v, err := ch.Receive(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, v, i)
	}
}

func TestStats(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ch, err := New[int](2)
	testutil.AssertNoError(t, err)
	defer ch.Close()

	testutil.AssertNoError(t, ch.Send(ctx, 1))
	testutil.AssertNoError(t, ch.Send(ctx, 2))
	_, err = ch.Receive(ctx)
	testutil.AssertNoError(t, err)

	s := ch.Stats()
	testutil.AssertEqual(t, s.Sends, 2)
	testutil.AssertEqual(t, s.Receives, 1)
	testutil.AssertEqual(t, s.Dropped, 0)
}
