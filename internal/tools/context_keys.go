package tools

import "context"

// Tool execution context keys.
// These replace mutable setter fields on tool instances, making tools thread-safe
// for concurrent execution. The agent loop's runTurn injects the channel,
// chat id and workspace values before any tool call (nothing injects the peer
// kind), and individual tools read them during Execute().

type toolContextKey string

const (
	ctxChannel   toolContextKey = "tool_channel"
	ctxChatID    toolContextKey = "tool_chat_id"
	ctxPeerKind  toolContextKey = "tool_peer_kind"
	ctxWorkspace toolContextKey = "tool_workspace"
)

func WithToolChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, ctxChannel, channel)
}

func ToolChannelFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxChannel).(string)
	return v
}

func WithToolChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, ctxChatID, chatID)
}

func ToolChatIDFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxChatID).(string)
	return v
}

func WithToolPeerKind(ctx context.Context, peerKind string) context.Context {
	return context.WithValue(ctx, ctxPeerKind, peerKind)
}

func ToolPeerKindFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxPeerKind).(string)
	return v
}

func WithToolWorkspace(ctx context.Context, ws string) context.Context {
	return context.WithValue(ctx, ctxWorkspace, ws)
}

func ToolWorkspaceFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxWorkspace).(string)
	return v
}

// toolTurnLogFields returns the calling turn's routing coordinates as
// slog key-value pairs, so a tool's log lines can be tied back to the
// conversation that triggered them. Omits a coordinate entirely when the
// context carries none, rather than logging empty strings.
func toolTurnLogFields(ctx context.Context) []any {
	var fields []any
	if ch := ToolChannelFromCtx(ctx); ch != "" {
		fields = append(fields, "channel", ch)
	}
	if id := ToolChatIDFromCtx(ctx); id != "" {
		fields = append(fields, "chat_id", id)
	}
	return fields
}
