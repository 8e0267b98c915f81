// Package tools provides subagent spawning: a parent agent can delegate a
// focused task to a child agent loop that runs in the background with a
// restricted tool registry, then reports its result back through the
// message bus once it completes.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/providers"
)

// SubagentConfig configures the subagent system.
type SubagentConfig struct {
	MaxConcurrent int    // max subagents running at once across all parents
	MaxSpawnDepth int    // how many levels of spawn are allowed (1 = no nested subagents)
	Model         string // model override for subagents (empty = inherit parent's)
}

const (
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// maxSubagentIterations bounds a subagent's own reasoning loop, shorter than
// a main agent's since subagents exist to finish one focused task.
const maxSubagentIterations = 15

// SubagentTask tracks one spawned subagent's lifecycle and origin, so its
// result can be routed back to the chat that requested it.
type SubagentTask struct {
	ID            string
	ParentID      string
	Task          string
	Label         string
	Status        string
	Result        string
	Depth         int
	OriginChannel string
	OriginChatID  string
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// SubagentManager runs subagent tasks in background goroutines and reports
// completion back onto the message bus's inbound queue on the reserved
// "system" channel, with the chat_id encoding "<origin_channel>:<origin_chat_id>"
// so the main loop's session lookup resolves to the originating conversation.
type SubagentManager struct {
	mu       sync.Mutex
	tasks    map[string]*SubagentTask
	running  int
	config   SubagentConfig
	provider providers.Provider
	model    string
	msgBus   *bus.MessageBus
	workspace string

	// newRegistry builds a restricted tool registry for one subagent run.
	newRegistry func() *Registry
}

func NewSubagentManager(
	provider providers.Provider,
	model string,
	workspace string,
	msgBus *bus.MessageBus,
	newRegistry func() *Registry,
	cfg SubagentConfig,
) *SubagentManager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.MaxSpawnDepth <= 0 {
		cfg.MaxSpawnDepth = 1
	}
	return &SubagentManager{
		tasks:       make(map[string]*SubagentTask),
		config:      cfg,
		provider:    provider,
		model:       model,
		workspace:   workspace,
		msgBus:      msgBus,
		newRegistry: newRegistry,
	}
}

// RunningCount returns how many subagents are currently executing.
func (sm *SubagentManager) RunningCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.running
}

// Spawn starts a subagent task in the background and returns immediately
// with an acknowledgement string for the parent's tool_call result. depth is
// the spawning agent's own depth (0 for the main agent); spawning is refused
// once depth reaches MaxSpawnDepth, so subagents cannot recursively spawn
// further subagents past the configured nesting limit.
func (sm *SubagentManager) Spawn(ctx context.Context, parentID string, depth int, task, label, originChannel, originChatID string) (string, error) {
	sm.mu.Lock()
	if depth >= sm.config.MaxSpawnDepth {
		sm.mu.Unlock()
		return "", fmt.Errorf("spawn depth limit reached (%d/%d)", depth, sm.config.MaxSpawnDepth)
	}
	if sm.running >= sm.config.MaxConcurrent {
		sm.mu.Unlock()
		return "", fmt.Errorf("max concurrent subagents reached (%d/%d)", sm.running, sm.config.MaxConcurrent)
	}

	id := uuid.New().String()[:8]
	if label == "" {
		label = truncate(task, 30)
	}
	subTask := &SubagentTask{
		ID:            id,
		ParentID:      parentID,
		Task:          task,
		Label:         label,
		Status:        TaskStatusRunning,
		Depth:         depth + 1,
		OriginChannel: originChannel,
		OriginChatID:  originChatID,
		CreatedAt:     time.Now(),
	}
	sm.tasks[id] = subTask
	sm.running++
	sm.mu.Unlock()

	slog.Info("subagent spawned", "id", id, "parent", parentID, "depth", subTask.Depth, "label", label)

	taskCtx := context.WithoutCancel(ctx)
	go sm.run(taskCtx, subTask)

	return fmt.Sprintf("Subagent [%s] started (id: %s). I'll notify you when it completes.", label, id), nil
}

func (sm *SubagentManager) run(ctx context.Context, t *SubagentTask) {
	defer func() {
		sm.mu.Lock()
		sm.running--
		sm.mu.Unlock()
	}()

	slog.Info("subagent starting task", "id", t.ID, "label", t.Label)

	result, err := sm.execute(ctx, t.Task)
	t.CompletedAt = time.Now()
	if err != nil {
		t.Status = TaskStatusFailed
		t.Result = fmt.Sprintf("Error: %s", err)
		slog.Error("subagent failed", "id", t.ID, "error", err)
	} else {
		t.Status = TaskStatusCompleted
		t.Result = result
		slog.Info("subagent completed", "id", t.ID)
	}

	sm.announce(t)
}

// execute runs a self-contained reasoning loop for the subagent: system
// prompt plus the task as the sole user turn, tool calls serviced from a
// restricted registry, bounded by maxSubagentIterations.
func (sm *SubagentManager) execute(ctx context.Context, task string) (string, error) {
	registry := sm.newRegistry()

	messages := []providers.Message{
		{Role: "system", Content: sm.buildPrompt(task)},
		{Role: "user", Content: task},
	}

	model := sm.model
	if sm.config.Model != "" {
		model = sm.config.Model
	}

	for iteration := 0; iteration < maxSubagentIterations; iteration++ {
		resp, err := sm.provider.Chat(ctx, providers.ChatRequest{
			Messages: messages,
			Tools:    registry.Definitions(),
			Model:    model,
		})
		if err != nil {
			return "", fmt.Errorf("provider chat: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Content == "" {
				return "Task completed but no final response was generated.", nil
			}
			return resp.Content, nil
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			output := registry.Execute(ctx, tc.Name, tc.Arguments)
			messages = append(messages, providers.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    output,
			})
		}
	}

	return "", fmt.Errorf("exceeded %d iterations without a final answer", maxSubagentIterations)
}

func (sm *SubagentManager) buildPrompt(task string) string {
	return fmt.Sprintf(`# Subagent

You are a subagent spawned by the main agent to complete a specific task.

## Task
%s

## Rules
1. Stay focused - complete only the assigned task, nothing else
2. Your final response will be reported back to the main agent
3. Do not initiate conversations or take on side tasks
4. Be concise but informative in your findings

## You can
- Read and write files in the workspace
- Execute shell commands
- Search the web and fetch web pages

## You cannot
- Send messages directly to users (no message tool available)
- Spawn other subagents

Your workspace is at: %s

When you have completed the task, provide a clear summary of your findings or actions.`, task, sm.workspace)
}

// announce publishes the subagent's result back onto the bus as an inbound
// system message, addressed to the chat that originally requested the
// subagent via the "<channel>:<chat_id>" encoding in chat_id.
func (sm *SubagentManager) announce(t *SubagentTask) {
	statusText := "completed successfully"
	if t.Status == TaskStatusFailed {
		statusText = "failed"
	}

	content := fmt.Sprintf(`[Subagent '%s' %s]

Task: %s

Result:
%s

Summarize this naturally for the user. Keep it brief (1-2 sentences). Do not mention technical details like "subagent" or task IDs.`,
		t.Label, statusText, t.Task, t.Result)

	sm.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  "system",
		SenderID: "subagent",
		ChatID:   fmt.Sprintf("%s:%s", t.OriginChannel, t.OriginChatID),
		Content:  content,
	})

	slog.Debug("subagent announced result", "id", t.ID, "origin", t.OriginChannel+":"+t.OriginChatID)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
