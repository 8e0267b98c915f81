// Package bus implements the in-process message bus that decouples channel
// transports from the agent loop: two FIFO queues (inbound, outbound) plus a
// per-channel outbound fan-out dispatcher.
package bus

import "time"

// InboundMessage is a message received from a channel transport.
// Immutable once published: consumers must not mutate a value they read off
// the queue.
type InboundMessage struct {
	Channel   string            `json:"channel"` // transport tag, or the reserved value "system"
	SenderID  string            `json:"sender_id"`
	ChatID    string            `json:"chat_id"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Media     []string          `json:"media,omitempty"` // ordered local filesystem paths
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionKey derives the canonical session identifier for this message:
// channel + ":" + chat_id.
func (m InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is a message to be delivered to a channel transport.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	ReplyTo  string            `json:"reply_to,omitempty"`
	Media    []string          `json:"media,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// OutboundHandler receives every outbound message published for the channel
// it is registered under. A handler that returns an error does not prevent
// sibling handlers for the same channel from running.
type OutboundHandler func(OutboundMessage) error
