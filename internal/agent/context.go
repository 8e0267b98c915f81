package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nanorelay/nanorelay/internal/memory"
	"github.com/nanorelay/nanorelay/internal/providers"
	"github.com/nanorelay/nanorelay/internal/sessions"
	"github.com/nanorelay/nanorelay/internal/skills"
)

var bootstrapFiles = []string{"AGENTS.md", "SOUL.md", "USER.md", "TOOLS.md", "IDENTITY.md"}

// ContextBuilder assembles the message list sent to the provider for one
// turn: a system message built from identity, bootstrap files, memory, and
// skills, followed by session history, followed by the current turn.
type ContextBuilder struct {
	name      string
	workspace string
	memory    *memory.Store
	skills    *skills.Cache
}

func NewContextBuilder(name, workspace, builtinDir string) *ContextBuilder {
	return &ContextBuilder{
		name:      name,
		workspace: workspace,
		memory:    memory.NewStore(workspace),
		skills:    skills.NewCache(skills.NewLoader(workspace, builtinDir)),
	}
}

// WatchSkills starts a background filesystem watch that keeps the skill
// cache current as SKILL.md files are added, edited, or removed.
func (cb *ContextBuilder) WatchSkills(ctx context.Context) {
	if err := cb.skills.Watch(ctx); err != nil {
		slog.Warn("context builder: skill watch unavailable", "error", err)
	}
}

// BuildMessages returns the ordered message list for one turn: system,
// then history (already projected to {role, content}), then the current
// user turn.
func (cb *ContextBuilder) BuildMessages(history []sessions.Turn, currentText string, media []string, channel, chatID string) []providers.Message {
	messages := make([]providers.Message, 0, len(history)+2)

	messages = append(messages, providers.Message{
		Role:    "system",
		Content: cb.buildSystemPrompt(channel, chatID),
	})

	for _, t := range history {
		messages = append(messages, providers.Message{Role: t.Role, Content: t.Content})
	}

	userMsg := providers.Message{Role: "user", Content: currentText}
	if images := loadImages(media); len(images) > 0 {
		userMsg.Images = images
	}
	messages = append(messages, userMsg)

	return messages
}

// AddAssistantMessage appends an assistant turn, possibly carrying tool
// calls, to a message list.
func AddAssistantMessage(messages []providers.Message, content string, toolCalls []providers.ToolCall) []providers.Message {
	return append(messages, providers.Message{Role: "assistant", Content: content, ToolCalls: toolCalls})
}

// AddToolResult appends a tool-result message tagged with the originating
// tool_call_id and tool name.
func AddToolResult(messages []providers.Message, toolCallID, name, output string) []providers.Message {
	return append(messages, providers.Message{Role: "tool", ToolCallID: toolCallID, Name: name, Content: output})
}

func (cb *ContextBuilder) buildSystemPrompt(channel, chatID string) string {
	parts := make([]string, 0, 5)

	parts = append(parts, cb.identityPreamble())

	if bootstrap := cb.loadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, bootstrap)
	}

	if mem := cb.memory.GetMemoryContext(); mem != "" {
		parts = append(parts, "# Memory\n\n"+mem)
	}

	allSkills := cb.skills.Get()
	if always := skills.AlwaysOn(allSkills); len(always) > 0 {
		var b strings.Builder
		b.WriteString("# Active Skills\n\n")
		for _, s := range always {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Name, s.Body)
		}
		parts = append(parts, strings.TrimSpace(b.String()))
	}
	if manifest := skills.Manifest(allSkills); manifest != "" {
		parts = append(parts, "# Skills\n\n"+manifest)
	}

	systemPrompt := strings.Join(parts, "\n\n---\n\n")

	if channel != "" && chatID != "" {
		systemPrompt += fmt.Sprintf("\n\n## Current Session\nChannel: %s\nChat ID: %s", channel, chatID)
	}

	return systemPrompt
}

func (cb *ContextBuilder) identityPreamble() string {
	now := time.Now().Format("2006-01-02 15:04 (Monday)")
	workspacePath, err := filepath.Abs(cb.workspace)
	if err != nil {
		workspacePath = cb.workspace
	}

	return fmt.Sprintf(`# %s

You are %s, a personal AI assistant.

## Current Time
%s

## Runtime
%s %s, Go %s

## Workspace
Your workspace is at: %s
- Memory: %s/memory/MEMORY.md
- Skills: %s/skills/<name>/SKILL.md

Use your tools to read files, run commands, search the web, and delegate
focused tasks to subagents. Always use a tool when one applies instead of
describing what you would do.`,
		cb.name, cb.name, now, runtime.GOOS, runtime.GOARCH, runtime.Version(),
		workspacePath, workspacePath, workspacePath)
}

func (cb *ContextBuilder) loadBootstrapFiles() string {
	var b strings.Builder
	for _, name := range bootstrapFiles {
		data, err := os.ReadFile(filepath.Join(cb.workspace, name))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, strings.TrimSpace(string(data)))
	}
	return strings.TrimSpace(b.String())
}
