// Package channel provides a bounded FIFO channel with configurable
// overflow strategies and suspension that honors context cancellation.
//
// Unlike native Go channels, a Channel supports cancellable sends and
// receives, overflow policies other than blocking (Drop, DropOldest,
// Reject), runtime inspection (Len, Blocked, Stats), and optional
// Prometheus instrumentation. Values are always delivered in send order,
// and suspended senders and receivers are resumed in FIFO order.
//
// Basic usage:
//
//	ch, err := channel.New[int](5)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ch.Close()
//
//	go func() {
//		for i := 0; i < 10; i++ {
//			ch.Send(ctx, i) // suspends once 5 values are buffered
//		}
//	}()
//
//	for {
//		v, err := ch.Receive(ctx)
//		if errors.Is(err, channel.ErrClosed) {
//			break
//		}
//		process(v)
//	}
package channel
