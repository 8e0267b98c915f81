// Package feishu implements the Feishu/Lark channel over plain net/http:
// a tenant-access-token REST client for outbound sends, and a webhook HTTP
// server for inbound events (URL verification handshake plus message.receive
// events).
package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
	"github.com/nanorelay/nanorelay/internal/config"
)

const defaultTextChunkLimit = 4000

// Channel connects to Feishu/Lark via a tenant-token REST client plus an
// inbound webhook HTTP server.
type Channel struct {
	*channels.BaseChannel
	cfg        config.FeishuConfig
	client     *LarkClient
	httpServer *http.Server
}

func New(cfg config.FeishuConfig, msgBus *bus.MessageBus) (*Channel, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("feishu app_id and app_secret are required")
	}
	domain := cfg.Domain
	if domain == "" {
		domain = "https://open.larksuite.com"
	} else if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}

	return &Channel{
		BaseChannel: channels.NewBaseChannel("feishu", msgBus, cfg.AllowFrom),
		cfg:         cfg,
		client:      NewLarkClient(cfg.AppID, cfg.AppSecret, domain),
	}, nil
}

func (c *Channel) Start(ctx context.Context) error {
	port := c.cfg.WebhookPort
	if port <= 0 {
		port = 3000
	}
	path := c.cfg.WebhookPath
	if path == "" {
		path = "/feishu/events"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, c.handleWebhook)
	c.httpServer = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("feishu webhook server error", "error", err)
		}
	}()

	slog.Info("feishu webhook listening", "port", port, "path", path)
	c.SetRunning(true)
	return nil
}

func (c *Channel) Stop(ctx context.Context) error {
	c.SetRunning(false)
	if c.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.httpServer.Shutdown(shutdownCtx)
}

func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("feishu channel not running")
	}
	return c.sendChunkedText(ctx, msg.ChatID, msg.Content)
}

// larkEvent is the event-callback envelope Lark posts to a webhook: either a
// URL verification challenge, or a message.receive_v1 event.
type larkEvent struct {
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
	Type      string `json:"type"`
	Header    struct {
		EventType string `json:"event_type"`
	} `json:"header"`
	Event struct {
		Sender struct {
			SenderID struct {
				OpenID string `json:"open_id"`
			} `json:"sender_id"`
		} `json:"sender"`
		Message struct {
			MessageID string `json:"message_id"`
			ChatID    string `json:"chat_id"`
			Content   string `json:"content"`
			MsgType   string `json:"message_type"`
		} `json:"message"`
	} `json:"event"`
}

func (c *Channel) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev larkEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if ev.Type == "url_verification" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"challenge": ev.Challenge})
		return
	}

	if c.cfg.VerificationToken != "" && ev.Token != c.cfg.VerificationToken {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)

	if ev.Header.EventType != "im.message.receive_v1" || ev.Event.Message.MsgType != "text" {
		return
	}

	var textContent struct {
		Text string `json:"text"`
	}
	json.Unmarshal([]byte(ev.Event.Message.Content), &textContent)

	senderID := ev.Event.Sender.SenderID.OpenID
	chatID := ev.Event.Message.ChatID
	c.HandleMessage(senderID, chatID, textContent.Text, nil, map[string]string{
		"message_id": ev.Event.Message.MessageID,
		"platform":   "feishu",
	})
}

func (c *Channel) sendChunkedText(ctx context.Context, chatID, text string) error {
	limit := c.cfg.TextChunkLimit
	if limit <= 0 {
		limit = defaultTextChunkLimit
	}
	for len(text) > 0 {
		chunk := text
		if len(chunk) > limit {
			cutAt := limit
			if idx := strings.LastIndex(text[:limit], "\n"); idx > limit/2 {
				cutAt = idx + 1
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		content, _ := json.Marshal(map[string]string{"text": chunk})
		if _, err := c.client.SendMessage(ctx, "chat_id", chatID, "text", string(content)); err != nil {
			return err
		}
	}
	return nil
}
