package channels

import (
	"context"
	"testing"
	"time"

	"github.com/nanorelay/nanorelay/internal/bus"
)

func TestBaseChannel_IsAllowed_EmptyAllowListAcceptsEveryone(t *testing.T) {
	c := NewBaseChannel("telegram", bus.New(), nil)
	if !c.IsAllowed("anyone") {
		t.Error("empty allow_from should accept every sender")
	}
}

func TestBaseChannel_IsAllowed_MatchesCompositeSenderID(t *testing.T) {
	c := NewBaseChannel("telegram", bus.New(), []string{"alice"})
	if !c.IsAllowed("12345|alice") {
		t.Error("composite sender id with a matching component should be allowed")
	}
	if c.IsAllowed("12345|bob") {
		t.Error("composite sender id with no matching component should be denied")
	}
}

func TestBaseChannel_HandleMessage_DeniesDisallowedSender(t *testing.T) {
	b := bus.New()
	c := NewBaseChannel("telegram", b, []string{"alice"})

	c.HandleMessage("bob", "chat-1", "hi", nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("message from a disallowed sender should not be published")
	}
}

func TestBaseChannel_HandleMessage_PublishesAllowedSender(t *testing.T) {
	b := bus.New()
	c := NewBaseChannel("telegram", b, nil)

	c.HandleMessage("alice", "chat-1", "hi", []string{"img.png"}, map[string]string{"k": "v"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a published message")
	}
	if msg.Channel != "telegram" || msg.SenderID != "alice" || msg.ChatID != "chat-1" || msg.Content != "hi" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Media) != 1 || msg.Media[0] != "img.png" {
		t.Errorf("media = %v", msg.Media)
	}
}

func TestBaseChannel_HandleMessage_RateLimitsSameSender(t *testing.T) {
	b := bus.New()
	c := NewBaseChannel("telegram", b, nil)

	for i := 0; i < rateBurst; i++ {
		c.HandleMessage("alice", "chat-1", "msg", nil, nil)
	}
	c.HandleMessage("alice", "chat-1", "one-too-many", nil, nil)

	count := 0
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, ok := b.ConsumeInbound(ctx)
		cancel()
		if !ok {
			break
		}
		count++
	}
	if count != rateBurst {
		t.Errorf("published message count = %d, want %d (the over-burst message should be dropped)", count, rateBurst)
	}
}

func TestBaseChannel_NameAndRunning(t *testing.T) {
	c := NewBaseChannel("discord", bus.New(), nil)
	if c.Name() != "discord" {
		t.Errorf("Name() = %q, want discord", c.Name())
	}
	if c.IsRunning() {
		t.Error("IsRunning() should be false before SetRunning(true)")
	}
	c.SetRunning(true)
	if !c.IsRunning() {
		t.Error("IsRunning() should be true after SetRunning(true)")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate() = %q, want unchanged string", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate() = %q, want %q", got, "hello...")
	}
}

func TestIsInternalChannel(t *testing.T) {
	if !IsInternalChannel("cli") || !IsInternalChannel("system") {
		t.Error("cli and system must be internal channels")
	}
	if IsInternalChannel("telegram") {
		t.Error("telegram must not be an internal channel")
	}
}
