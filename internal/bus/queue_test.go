package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishConsumeInbound_FIFOOrder(t *testing.T) {
	b := New()
	b.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Content: "first"})
	b.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Content: "second"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg1, ok := b.ConsumeInbound(ctx)
	if !ok || msg1.Content != "first" {
		t.Fatalf("first message = %+v, ok=%v", msg1, ok)
	}
	msg2, ok := b.ConsumeInbound(ctx)
	if !ok || msg2.Content != "second" {
		t.Fatalf("second message = %+v, ok=%v", msg2, ok)
	}
}

func TestPublishInbound_SetsTimestampWhenZero(t *testing.T) {
	b := New()
	before := time.Now()
	b.PublishInbound(InboundMessage{Channel: "cli", ChatID: "x", Content: "hi"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Timestamp.Before(before) {
		t.Error("Timestamp was not stamped with the current time")
	}
}

func TestConsumeInbound_ReturnsFalseOnContextCancel(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := b.ConsumeInbound(ctx)
	if ok {
		t.Error("expected ok=false for an already-cancelled context with an empty queue")
	}
}

func TestSessionKey(t *testing.T) {
	msg := InboundMessage{Channel: "discord", ChatID: "42"}
	if got, want := msg.SessionKey(), "discord:42"; got != want {
		t.Errorf("SessionKey() = %q, want %q", got, want)
	}
}

func TestSubscribeOutbound_InvokesHandlersInRegistrationOrder(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var order []string

	b.SubscribeOutbound("telegram", func(OutboundMessage) error {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
		return nil
	})
	b.SubscribeOutbound("telegram", func(OutboundMessage) error {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		return nil
	})

	b.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})

	ctx, cancel := context.WithCancel(context.Background())
	go b.DispatchOutbound(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handler order = %v, want [first second]", order)
	}
}

func TestDispatchOutbound_OnlyInvokesSubscribersForMatchingChannel(t *testing.T) {
	b := New()

	var mu sync.Mutex
	called := false
	b.SubscribeOutbound("discord", func(OutboundMessage) error {
		mu.Lock()
		called = true
		mu.Unlock()
		return nil
	})

	b.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("handler for a different channel should not have been invoked")
	}
}

func TestDispatchOutbound_HandlerPanicDoesNotStopRemainingHandlers(t *testing.T) {
	b := New()

	var mu sync.Mutex
	secondCalled := false

	b.SubscribeOutbound("telegram", func(OutboundMessage) error {
		panic("boom")
	})
	b.SubscribeOutbound("telegram", func(OutboundMessage) error {
		mu.Lock()
		secondCalled = true
		mu.Unlock()
		return nil
	})

	b.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "1", Content: "hi"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := secondCalled
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if !secondCalled {
		t.Error("second handler should still run after the first one panics")
	}
}
