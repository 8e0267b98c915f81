package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// pollInterval bounds how long ConsumeInbound blocks before re-checking the
// context, so a caller's cancellation (e.g. loop shutdown) is observed within
// one interval even though the queue has no native wakeup-on-cancel.
const pollInterval = 1 * time.Second

// fifo is an unbounded, mutex-guarded FIFO of T. It is the building block for
// both the inbound and outbound queues: a single growable slice rather than a
// fixed-capacity channel, so producers never block on a full buffer.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	return v, true
}

// MessageBus is the process-wide singleton connecting channel transports to
// the agent loop: two FIFO queues plus a per-channel outbound fan-out.
//
// Ordering guarantee: FIFO per queue; no cross-queue ordering. The bus
// performs no persistence of its own — messages enqueued but not yet
// consumed are lost on process shutdown.
type MessageBus struct {
	inbound  fifo[InboundMessage]
	outbound fifo[OutboundMessage]

	subMu       sync.Mutex
	subscribers map[string][]OutboundHandler // channel -> handlers, registration order
}

// New creates an empty MessageBus.
func New() *MessageBus {
	return &MessageBus{subscribers: make(map[string][]OutboundHandler)}
}

// PublishInbound enqueues a message for the agent loop to consume.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	b.inbound.push(msg)
}

// ConsumeInbound blocks until a message is available or ctx is done. It polls
// with a short, fixed interval rather than blocking indefinitely, so a
// cancelled context (a stop request) is observed within one poll tick instead
// of waiting for the next publish. Returns ok=false only when ctx ends first.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if msg, ok := b.inbound.pop(); ok {
			return msg, true
		}
		select {
		case <-ctx.Done():
			var zero InboundMessage
			return zero, false
		case <-ticker.C:
		}
	}
}

// PublishOutbound enqueues a message for delivery to its channel's
// subscribers.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound.push(msg)
}

// SubscribeOutbound registers handler to receive every outbound message
// published for channel. Multiple handlers per channel are invoked in
// registration order.
func (b *MessageBus) SubscribeOutbound(channel string, handler OutboundHandler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subscribers[channel] = append(b.subscribers[channel], handler)
}

// DispatchOutbound runs the background pump: dequeue one outbound message at
// a time and invoke every handler registered for its channel. A handler
// error is logged and does not prevent the remaining handlers from running.
// Blocks until ctx is cancelled.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		for {
			msg, ok := b.outbound.pop()
			if !ok {
				break
			}
			b.deliver(msg)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *MessageBus) deliver(msg OutboundMessage) {
	b.subMu.Lock()
	handlers := append([]OutboundHandler(nil), b.subscribers[msg.Channel]...)
	b.subMu.Unlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("outbound subscriber panicked", "channel", msg.Channel, "panic", r)
				}
			}()
			if err := h(msg); err != nil {
				slog.Error("outbound subscriber failed", "channel", msg.Channel, "error", err)
			}
		}()
	}
}
