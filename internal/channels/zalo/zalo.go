// Package zalo implements the Zalo OA Bot channel over plain net/http:
// long-polling getUpdates, sendMessage for replies. DM only, text capped at
// 2000 characters per Zalo's bot API.
package zalo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/channels"
	"github.com/nanorelay/nanorelay/internal/config"
)

const (
	apiBase          = "https://bot-api.zaloplatforms.com"
	pollTimeoutSecs  = 30
	maxTextLength    = 2000
	pollErrorBackoff = 5 * time.Second
)

// Channel connects to the Zalo OA Bot API via long polling.
type Channel struct {
	*channels.BaseChannel
	token  string
	client *http.Client
	stopCh chan struct{}
}

func New(cfg config.ZaloConfig, msgBus *bus.MessageBus) (*Channel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("zalo token is required")
	}
	return &Channel{
		BaseChannel: channels.NewBaseChannel("zalo", msgBus, cfg.AllowFrom),
		token:       cfg.Token,
		client:      &http.Client{Timeout: 60 * time.Second},
		stopCh:      make(chan struct{}),
	}, nil
}

func (c *Channel) Start(ctx context.Context) error {
	info, err := c.getMe()
	if err != nil {
		return fmt.Errorf("zalo getMe: %w", err)
	}
	slog.Info("zalo bot connected", "bot_id", info.ID, "bot_name", info.Name)

	c.SetRunning(true)
	go c.pollLoop(ctx)
	return nil
}

func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping zalo bot")
	close(c.stopCh)
	c.SetRunning(false)
	return nil
}

func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("zalo channel not running")
	}
	return c.sendChunkedText(msg.ChatID, msg.Content)
}

func (c *Channel) pollLoop(ctx context.Context) {
	slog.Info("zalo polling loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		updates, err := c.getUpdates(pollTimeoutSecs)
		if err != nil {
			slog.Warn("zalo getUpdates error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-time.After(pollErrorBackoff):
			}
			continue
		}
		for _, update := range updates {
			c.processUpdate(update)
		}
	}
}

func (c *Channel) processUpdate(update zaloUpdate) {
	if update.EventName != "message.text.received" || update.Message == nil {
		return
	}
	msg := update.Message
	senderID := msg.From.ID
	chatID := msg.Chat.ID
	if chatID == "" {
		chatID = senderID
	}

	content := msg.Text
	if content == "" {
		content = "[empty message]"
	}
	c.HandleMessage(senderID, chatID, content, nil, map[string]string{
		"message_id": msg.MessageID,
		"platform":   "zalo",
	})
}

func (c *Channel) sendChunkedText(chatID, text string) error {
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxTextLength {
			cutAt := maxTextLength
			if idx := strings.LastIndex(text[:maxTextLength], "\n"); idx > maxTextLength/2 {
				cutAt = idx + 1
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		if err := c.sendMessage(chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

type zaloAPIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

type zaloBotInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type zaloMessage struct {
	MessageID string   `json:"message_id"`
	Text      string   `json:"text"`
	From      zaloFrom `json:"from"`
	Chat      zaloChat `json:"chat"`
}

type zaloFrom struct {
	ID string `json:"id"`
}

type zaloChat struct {
	ID string `json:"id"`
}

type zaloUpdate struct {
	EventName string       `json:"event_name"`
	Message   *zaloMessage `json:"message,omitempty"`
}

func (c *Channel) callAPI(method string, body interface{}) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", apiBase, c.token, method)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call %s: %w", method, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var apiResp zaloAPIResponse
	if err := json.Unmarshal(respData, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("zalo api error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	return apiResp.Result, nil
}

func (c *Channel) getMe() (*zaloBotInfo, error) {
	result, err := c.callAPI("getMe", nil)
	if err != nil {
		return nil, err
	}
	var info zaloBotInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, fmt.Errorf("unmarshal bot info: %w", err)
	}
	return &info, nil
}

func (c *Channel) getUpdates(timeoutSecs int) ([]zaloUpdate, error) {
	result, err := c.callAPI("getUpdates", map[string]interface{}{"timeout": timeoutSecs})
	if err != nil {
		return nil, err
	}
	var updates []zaloUpdate
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("unmarshal updates: %w", err)
	}
	return updates, nil
}

func (c *Channel) sendMessage(chatID, text string) error {
	_, err := c.callAPI("sendMessage", map[string]interface{}{"chat_id": chatID, "text": text})
	return err
}
