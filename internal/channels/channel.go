// Package channels defines the transport contract: each concrete channel
// opens a connection, turns platform events into InboundMessage values on
// the bus, and turns OutboundMessage values back into platform sends.
package channels

import (
	"context"
	"strings"

	"github.com/nanorelay/nanorelay/internal/bus"
)

// Reserved channel names excluded from outbound dispatch / pairing flows.
var InternalChannels = map[string]bool{
	"cli":    true,
	"system": true,
}

func IsInternalChannel(name string) bool {
	return InternalChannels[name]
}

// Channel is the contract every transport adapter implements.
type Channel interface {
	// Name returns the channel identifier (e.g. "telegram", "discord").
	Name() string

	// Start opens the connection and launches the ingestion loop in the
	// background, then returns; the loop runs until ctx ends or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts the channel down.
	Stop(ctx context.Context) error

	// Send delivers an outbound message to the channel.
	Send(ctx context.Context, msg bus.OutboundMessage) error

	// IsRunning reports whether the ingestion loop is active.
	IsRunning() bool

	// IsAllowed checks a sender against allow_from.
	IsAllowed(senderID string) bool
}

// BaseChannel provides the allow-list check, per-sender rate limiting, and
// bus wiring shared by every concrete channel; adapters embed it.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	running   bool
	allowFrom []string
	limiter   *PerSenderLimiter
}

func NewBaseChannel(name string, msgBus *bus.MessageBus, allowFrom []string) *BaseChannel {
	return &BaseChannel{name: name, bus: msgBus, allowFrom: allowFrom, limiter: NewPerSenderLimiter()}
}

func (c *BaseChannel) Name() string           { return c.name }
func (c *BaseChannel) IsRunning() bool        { return c.running }
func (c *BaseChannel) SetRunning(running bool) { c.running = running }
func (c *BaseChannel) Bus() *bus.MessageBus   { return c.bus }

// IsAllowed checks senderID against allow_from. An empty allow_from accepts
// everyone. senderID may be a composite "<id>|<username>" string — any
// component matching an allow_from entry is sufficient.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	parts := strings.Split(senderID, "|")
	for _, allowed := range c.allowFrom {
		for _, p := range parts {
			if p == allowed {
				return true
			}
		}
	}
	return false
}

// HandleMessage builds an InboundMessage from raw transport fields and
// publishes it, after checking allow_from and the per-sender rate limit.
// Denied or throttled events are dropped silently.
func (c *BaseChannel) HandleMessage(senderID, chatID, content string, media []string, metadata map[string]string) {
	if !c.IsAllowed(senderID) {
		return
	}
	if !c.limiter.Allow(senderID) {
		return
	}
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:  c.name,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Media:    media,
		Metadata: metadata,
	})
}

// Truncate shortens s to maxLen, appending "..." if it was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
