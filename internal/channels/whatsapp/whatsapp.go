// Package whatsapp connects to a WhatsApp bridge (e.g. a whatsapp-web.js
// process) over a WebSocket, exchanging newline-delimited JSON events. The
// bridge owns the actual WhatsApp protocol; this channel only relays.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
	"github.com/nanorelay/nanorelay/internal/config"
)

// Channel connects to a WhatsApp bridge via WebSocket.
type Channel struct {
	*channels.BaseChannel
	conn      *websocket.Conn
	config    config.WhatsAppConfig
	mu        sync.Mutex
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(cfg config.WhatsAppConfig, msgBus *bus.MessageBus) (*Channel, error) {
	if cfg.BridgeURL == "" {
		return nil, fmt.Errorf("whatsapp bridge_url is required")
	}
	return &Channel{
		BaseChannel: channels.NewBaseChannel("whatsapp", msgBus, cfg.AllowFrom),
		config:      cfg,
	}, nil
}

func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting whatsapp channel", "bridge_url", c.config.BridgeURL)
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.connect(); err != nil {
		slog.Warn("initial whatsapp bridge connection failed, will retry", "error", err)
	}
	go c.listenLoop()
	c.SetRunning(true)
	return nil
}

func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping whatsapp channel")
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.SetRunning(false)
	return nil
}

func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("whatsapp bridge not connected")
	}
	if msg.Content == "" {
		return nil
	}
	data, err := json.Marshal(map[string]interface{}{"type": "message", "to": msg.ChatID, "content": msg.Content})
	if err != nil {
		return fmt.Errorf("marshal whatsapp message: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

func (c *Channel) connect() error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.config.BridgeURL, nil)
	if err != nil {
		return fmt.Errorf("dial whatsapp bridge %s: %w", c.config.BridgeURL, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	slog.Info("whatsapp bridge connected", "url", c.config.BridgeURL)
	return nil
}

func (c *Channel) listenLoop() {
	backoff := time.Second
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			slog.Info("attempting whatsapp bridge reconnect", "backoff", backoff)
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(backoff):
			}
			if err := c.connect(); err != nil {
				slog.Warn("whatsapp bridge reconnect failed", "error", err)
				backoff = min(backoff*2, 30*time.Second)
				continue
			}
			backoff = time.Second
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("whatsapp read error, will reconnect", "error", err)
			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.connected = false
			c.mu.Unlock()
			continue
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("invalid whatsapp message JSON", "error", err)
			continue
		}
		if msgType, _ := msg["type"].(string); msgType == "message" {
			c.handleIncomingMessage(msg)
		}
	}
}

// handleIncomingMessage expects:
// {"type":"message","from":"...","chat":"...","content":"...","id":"...","from_name":"...","media":[...]}
func (c *Channel) handleIncomingMessage(msg map[string]interface{}) {
	senderID, ok := msg["from"].(string)
	if !ok || senderID == "" {
		return
	}
	chatID, _ := msg["chat"].(string)
	if chatID == "" {
		chatID = senderID
	}

	content, _ := msg["content"].(string)
	if content == "" {
		content = "[empty message]"
	}

	var media []string
	if mediaData, ok := msg["media"].([]interface{}); ok {
		for _, m := range mediaData {
			if path, ok := m.(string); ok {
				media = append(media, path)
			}
		}
	}

	metadata := make(map[string]string)
	if messageID, ok := msg["id"].(string); ok {
		metadata["message_id"] = messageID
	}
	if userName, ok := msg["from_name"].(string); ok {
		metadata["user_name"] = userName
	}
	if strings.HasSuffix(chatID, "@g.us") {
		metadata["peer_kind"] = "group"
	}

	slog.Debug("whatsapp message received", "sender_id", senderID, "chat_id", chatID,
		"preview", channels.Truncate(content, 50))

	c.HandleMessage(senderID, chatID, content, media, metadata)
}
