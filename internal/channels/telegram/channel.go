// Package telegram implements the Telegram transport adapter using long
// polling: one bot instance, update events turned into InboundMessage,
// outbound replies chunked at Telegram's 4096-character limit.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
	"github.com/nanorelay/nanorelay/internal/config"
)

// Channel connects to Telegram via the Bot API using long polling.
type Channel struct {
	*channels.BaseChannel
	bot            *telego.Bot
	config         config.TelegramConfig
	requireMention bool
	pollCancel     context.CancelFunc
	pollDone       chan struct{}
}

func New(cfg config.TelegramConfig, msgBus *bus.MessageBus) (*Channel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	requireMention := true
	if cfg.RequireMention != nil {
		requireMention = *cfg.RequireMention
	}

	return &Channel{
		BaseChannel:    channels.NewBaseChannel("telegram", msgBus, cfg.AllowFrom),
		bot:            bot,
		config:         cfg,
		requireMention: requireMention,
	}, nil
}

func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting telegram bot (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	c.SetRunning(true)
	slog.Info("telegram bot connected", "username", c.bot.Username())

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				if update.Message != nil {
					c.handleMessage(update.Message)
				}
			}
		}
	}()

	return nil
}

func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping telegram bot")
	c.SetRunning(false)

	if c.pollCancel != nil {
		c.pollCancel()
	}
	if c.pollDone != nil {
		select {
		case <-c.pollDone:
			slog.Info("telegram bot stopped")
		case <-time.After(10 * time.Second):
			slog.Warn("telegram polling goroutine did not exit within timeout")
		}
	}
	return nil
}

const telegramMaxLen = 4096

func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}
	if msg.Content == "" {
		return nil
	}
	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", msg.ChatID, err)
	}

	content := msg.Content
	for len(content) > 0 {
		chunk := content
		if len(chunk) > telegramMaxLen {
			cutAt := telegramMaxLen
			if idx := lastIndexByte(content[:telegramMaxLen], '\n'); idx > telegramMaxLen/2 {
				cutAt = idx + 1
			}
			chunk = content[:cutAt]
			content = content[cutAt:]
		} else {
			content = ""
		}
		_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID: telego.ChatID{ID: chatID},
			Text:   chunk,
		})
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func (c *Channel) handleMessage(m *telego.Message) {
	if m.From == nil || m.From.IsBot {
		return
	}

	senderID := fmt.Sprintf("%d", m.From.ID)
	if m.From.Username != "" {
		senderID = fmt.Sprintf("%d|%s", m.From.ID, m.From.Username)
	}
	chatID := fmt.Sprintf("%d", m.Chat.ID)
	isGroup := m.Chat.Type == telego.ChatTypeGroup || m.Chat.Type == telego.ChatTypeSupergroup

	content := m.Text
	if content == "" {
		content = m.Caption
	}

	if isGroup && c.requireMention {
		mentioned := false
		botUsername := c.bot.Username()
		if botUsername != "" {
			for _, ent := range m.Entities {
				if ent.Type == telego.EntityTypeMention {
					mentioned = true
					break
				}
			}
			if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil && m.ReplyToMessage.From.Username == botUsername {
				mentioned = true
			}
		}
		if !mentioned {
			return
		}
	}

	if content == "" {
		content = "[empty message]"
	}

	metadata := map[string]string{
		"message_id": fmt.Sprintf("%d", m.MessageID),
		"chat_type":  string(m.Chat.Type),
	}

	slog.Debug("telegram message received", "sender_id", senderID, "chat_id", chatID,
		"preview", channels.Truncate(content, 50))

	c.HandleMessage(senderID, chatID, content, nil, metadata)
}

func parseChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
