package tools

import (
	"context"

	"github.com/nanorelay/nanorelay/internal/bus"
)

// MessageTool lets the model push an extra outbound message to the
// originating transport mid-turn, ahead of its final reply (e.g. a
// "working on it" progress note before a long tool call).
type MessageTool struct {
	msgBus *bus.MessageBus
}

func NewMessageTool(msgBus *bus.MessageBus) *MessageTool {
	return &MessageTool{msgBus: msgBus}
}

func (t *MessageTool) Name() string { return "message" }
func (t *MessageTool) Description() string {
	return "Send an additional message to the user on the current conversation, separate from your final reply"
}
func (t *MessageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Message content to send",
			},
		},
		"required": []string{"content"},
	}
}

func (t *MessageTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	content, _ := args["content"].(string)
	if content == "" {
		return ErrorResult("content is required")
	}

	channel := ToolChannelFromCtx(ctx)
	chatID := ToolChatIDFromCtx(ctx)

	t.msgBus.PublishOutbound(bus.OutboundMessage{
		Channel: channel,
		ChatID:  chatID,
		Content: content,
	})

	return SilentResult("Message sent.")
}
