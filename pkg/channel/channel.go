package channel

import (
	"context"
	"sync"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
	"github.com/vparekh/treescope/pkg/common/validation"
	"github.com/vparekh/treescope/pkg/metrics"
)

// Strategy defines how a full channel treats an incoming value.
type Strategy int

const (
	// Block suspends the sender until space frees up or the channel closes.
	Block Strategy = iota

	// Drop discards the incoming value when the buffer is full.
	Drop

	// DropOldest discards the oldest buffered value to make room.
	DropOldest

	// Reject fails the send with ErrFull when the buffer is full.
	Reject
)

// ErrClosed is returned when operating on a closed channel.
var ErrClosed = tserrors.ErrClosed

// ErrFull is returned by Reject-strategy sends and TrySend on a full buffer.
var ErrFull = tserrors.ErrFull

// Config configures a Channel.
type Config[T any] struct {
	// Capacity is the buffer size. Must be positive.
	Capacity int

	// Strategy defines overflow behavior. Defaults to Block.
	Strategy Strategy

	// OnDrop is called with each value discarded by Drop or DropOldest.
	OnDrop func(value T)

	// Name labels the channel in metrics.
	Name string

	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// Stats is a snapshot of channel counters.
type Stats struct {
	Sends        int64
	Receives     int64
	Dropped      int64
	BlockedSends int64
}

// Channel is a bounded FIFO communication primitive. Values are delivered
// in send order; a sender on a full Block-strategy channel suspends until
// the receiver frees capacity, and a receiver on an empty channel suspends
// until a value arrives or the channel closes. Waiters are served in FIFO
// order and may abandon the wait via context cancellation.
type Channel[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	tail   int
	count  int
	closed bool

	sendq []*sendWaiter[T]
	recvq []*recvWaiter[T]

	cfg   Config[T]
	stats Stats

	reg *metrics.Registry
}

type sendWaiter[T any] struct {
	value T
	done  chan error
}

type recvWaiter[T any] struct {
	done chan recvResult[T]
}

type recvResult[T any] struct {
	value T
	err   error
}

// New creates a Block-strategy channel with the given capacity.
func New[T any](capacity int) (*Channel[T], error) {
	return NewWithConfig(Config[T]{Capacity: capacity})
}

// NewWithConfig creates a channel with the given configuration.
func NewWithConfig[T any](cfg Config[T]) (*Channel[T], error) {
	if err := validation.Positive("channel", "capacity", cfg.Capacity); err != nil {
		return nil, err
	}
	ch := &Channel[T]{
		buf: make([]T, cfg.Capacity),
		cfg: cfg,
	}
	ch.reg = cfg.Metrics.Resolve()
	return ch, nil
}

// Send delivers value, applying the configured overflow strategy when the
// buffer is full. Block-strategy sends suspend until space frees, the
// channel closes, or ctx is cancelled.
func (ch *Channel[T]) Send(ctx context.Context, value T) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return ErrClosed
	}

	// Direct handoff to the oldest waiting receiver.
	if len(ch.recvq) > 0 {
		w := ch.recvq[0]
		ch.recvq = ch.recvq[1:]
		ch.stats.Sends++
		ch.stats.Receives++
		ch.mu.Unlock()
		w.done <- recvResult[T]{value: value}
		ch.counted(1, 1)
		return nil
	}

	if ch.count < len(ch.buf) {
		ch.pushLocked(value)
		ch.stats.Sends++
		ch.mu.Unlock()
		ch.counted(1, 0)
		ch.gauge()
		return nil
	}

	switch ch.cfg.Strategy {
	case Drop:
		ch.stats.Dropped++
		onDrop := ch.cfg.OnDrop
		ch.mu.Unlock()
		ch.dropped(1)
		if onDrop != nil {
			onDrop(value)
		}
		return nil
	case DropOldest:
		old := ch.popLocked()
		ch.pushLocked(value)
		ch.stats.Sends++
		ch.stats.Dropped++
		onDrop := ch.cfg.OnDrop
		ch.mu.Unlock()
		ch.counted(1, 0)
		ch.dropped(1)
		if onDrop != nil {
			onDrop(old)
		}
		return nil
	case Reject:
		ch.mu.Unlock()
		return ErrFull
	}

	// Block: enqueue and suspend.
	w := &sendWaiter[T]{value: value, done: make(chan error, 1)}
	ch.sendq = append(ch.sendq, w)
	ch.stats.BlockedSends++
	ch.mu.Unlock()
	ch.blocked(1)

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		ch.mu.Lock()
		for i, q := range ch.sendq {
			if q == w {
				ch.sendq = append(ch.sendq[:i], ch.sendq[i+1:]...)
				ch.mu.Unlock()
				return context.Cause(ctx)
			}
		}
		ch.mu.Unlock()
		// The value was accepted concurrently with the cancellation.
		return <-w.done
	}
}

// TrySend delivers value without suspending. On a full buffer, Drop and
// DropOldest apply their strategy; Block and Reject fail with ErrFull.
func (ch *Channel[T]) TrySend(value T) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return ErrClosed
	}

	if len(ch.recvq) > 0 {
		w := ch.recvq[0]
		ch.recvq = ch.recvq[1:]
		ch.stats.Sends++
		ch.stats.Receives++
		ch.mu.Unlock()
		w.done <- recvResult[T]{value: value}
		ch.counted(1, 1)
		return nil
	}

	if ch.count < len(ch.buf) {
		ch.pushLocked(value)
		ch.stats.Sends++
		ch.mu.Unlock()
		ch.counted(1, 0)
		ch.gauge()
		return nil
	}

	switch ch.cfg.Strategy {
	case Drop:
		ch.stats.Dropped++
		onDrop := ch.cfg.OnDrop
		ch.mu.Unlock()
		ch.dropped(1)
		if onDrop != nil {
			onDrop(value)
		}
		return nil
	case DropOldest:
		old := ch.popLocked()
		ch.pushLocked(value)
		ch.stats.Sends++
		ch.stats.Dropped++
		onDrop := ch.cfg.OnDrop
		ch.mu.Unlock()
		ch.counted(1, 0)
		ch.dropped(1)
		if onDrop != nil {
			onDrop(old)
		}
		return nil
	default:
		ch.mu.Unlock()
		return ErrFull
	}
}

// Receive takes the oldest value, suspending on an empty channel until a
// value arrives, the channel closes, or ctx is cancelled. A closed channel
// drains its buffer before reporting ErrClosed.
func (ch *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	ch.mu.Lock()
	if ch.count > 0 {
		value := ch.popLocked()
		ch.stats.Receives++
		ch.admitSenderLocked()
		ch.mu.Unlock()
		ch.counted(0, 1)
		ch.gauge()
		return value, nil
	}
	if ch.closed {
		ch.mu.Unlock()
		return zero, ErrClosed
	}

	w := &recvWaiter[T]{done: make(chan recvResult[T], 1)}
	ch.recvq = append(ch.recvq, w)
	ch.mu.Unlock()

	select {
	case res := <-w.done:
		return res.value, res.err
	case <-ctx.Done():
		ch.mu.Lock()
		for i, q := range ch.recvq {
			if q == w {
				ch.recvq = append(ch.recvq[:i], ch.recvq[i+1:]...)
				ch.mu.Unlock()
				return zero, context.Cause(ctx)
			}
		}
		ch.mu.Unlock()
		// A delivery raced with the cancellation; do not lose the value.
		res := <-w.done
		return res.value, res.err
	}
}

// TryReceive takes the oldest value without suspending. The boolean reports
// whether a value was taken.
func (ch *Channel[T]) TryReceive() (T, bool, error) {
	var zero T

	ch.mu.Lock()
	if ch.count > 0 {
		value := ch.popLocked()
		ch.stats.Receives++
		ch.admitSenderLocked()
		ch.mu.Unlock()
		ch.counted(0, 1)
		ch.gauge()
		return value, true, nil
	}
	closed := ch.closed
	ch.mu.Unlock()

	if closed {
		return zero, false, ErrClosed
	}
	return zero, false, nil
}

// Close closes the channel for sending. Suspended senders fail with
// ErrClosed; suspended receivers fail with ErrClosed; buffered values remain
// receivable. Close is idempotent.
func (ch *Channel[T]) Close() error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	ch.closed = true
	senders := ch.sendq
	receivers := ch.recvq
	ch.sendq = nil
	ch.recvq = nil
	ch.mu.Unlock()

	for _, s := range senders {
		s.done <- ErrClosed
	}
	for _, r := range receivers {
		r.done <- recvResult[T]{err: ErrClosed}
	}
	return nil
}

// IsClosed returns true if the channel has been closed.
func (ch *Channel[T]) IsClosed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closed
}

// Len returns the number of buffered values.
func (ch *Channel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Cap returns the buffer capacity.
func (ch *Channel[T]) Cap() int {
	return len(ch.buf)
}

// Blocked returns the number of suspended senders.
func (ch *Channel[T]) Blocked() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.sendq)
}

// Stats returns a snapshot of the channel's counters.
func (ch *Channel[T]) Stats() Stats {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.stats
}

// admitSenderLocked moves the oldest suspended sender's value into the
// buffer slot just freed. Must be called with ch.mu held.
func (ch *Channel[T]) admitSenderLocked() {
	if len(ch.sendq) == 0 {
		return
	}
	s := ch.sendq[0]
	ch.sendq = ch.sendq[1:]
	ch.pushLocked(s.value)
	ch.stats.Sends++
	s.done <- nil
}

func (ch *Channel[T]) pushLocked(value T) {
	ch.buf[ch.tail] = value
	ch.tail = (ch.tail + 1) % len(ch.buf)
	ch.count++
}

func (ch *Channel[T]) popLocked() T {
	var zero T
	value := ch.buf[ch.head]
	ch.buf[ch.head] = zero // drop the reference
	ch.head = (ch.head + 1) % len(ch.buf)
	ch.count--
	return value
}

func (ch *Channel[T]) counted(sends, receives float64) {
	if ch.reg == nil {
		return
	}
	if sends > 0 {
		ch.reg.ChannelSends.WithLabelValues(ch.cfg.Name).Add(sends)
	}
	if receives > 0 {
		ch.reg.ChannelReceives.WithLabelValues(ch.cfg.Name).Add(receives)
	}
}

func (ch *Channel[T]) dropped(n float64) {
	if ch.reg != nil {
		ch.reg.ChannelDropped.WithLabelValues(ch.cfg.Name).Add(n)
	}
}

func (ch *Channel[T]) blocked(n float64) {
	if ch.reg != nil {
		ch.reg.ChannelBlocked.WithLabelValues(ch.cfg.Name).Add(n)
	}
}

func (ch *Channel[T]) gauge() {
	if ch.reg != nil {
		ch.reg.ChannelDepth.WithLabelValues(ch.cfg.Name).Set(float64(ch.Len()))
	}
}
