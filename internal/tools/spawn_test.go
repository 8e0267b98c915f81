package tools

import (
	"context"
	"testing"
	"time"

	"github.com/nanorelay/nanorelay/internal/bus"
	"github.com/nanorelay/nanorelay/internal/providers"
)

type fakeProvider struct {
	responses []*providers.ChatResponse
	calls     int
}

func (f *fakeProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	if f.calls >= len(f.responses) {
		return &providers.ChatResponse{Content: "done", FinishReason: "stop"}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}
func (f *fakeProvider) DefaultModel() string { return "fake-model" }
func (f *fakeProvider) Name() string         { return "fake" }

func TestSpawnTool_Name(t *testing.T) {
	mgr := NewSubagentManager(&fakeProvider{}, "fake-model", t.TempDir(), bus.New(), func() *Registry { return NewRegistry() }, SubagentConfig{})
	tool := NewSpawnTool(mgr, "parent-1", 0)
	if tool.Name() != "spawn" {
		t.Errorf("Name() = %q, want spawn", tool.Name())
	}
}

func TestSpawnTool_RequiresTask(t *testing.T) {
	mgr := NewSubagentManager(&fakeProvider{}, "fake-model", t.TempDir(), bus.New(), func() *Registry { return NewRegistry() }, SubagentConfig{})
	tool := NewSpawnTool(mgr, "parent-1", 0)

	result := tool.Execute(context.Background(), map[string]interface{}{})
	if !result.IsError {
		t.Error("expected an error result when task is missing")
	}
}

func TestSpawnTool_Execute_ReturnsAsyncAckAndAnnouncesOnBus(t *testing.T) {
	provider := &fakeProvider{
		responses: []*providers.ChatResponse{
			{Content: "the answer is 42", FinishReason: "stop"},
		},
	}
	b := bus.New()
	mgr := NewSubagentManager(provider, "fake-model", t.TempDir(), b, func() *Registry { return NewRegistry() }, SubagentConfig{MaxConcurrent: 2, MaxSpawnDepth: 1})
	tool := NewSpawnTool(mgr, "parent-1", 0)

	ctx := WithToolChatID(WithToolChannel(context.Background(), "telegram"), "99")
	result := tool.Execute(ctx, map[string]interface{}{"task": "find the answer", "label": "answer-finder"})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}
	if !result.Async {
		t.Error("spawn tool result should be Async")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		consumeCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		msg, ok := b.ConsumeInbound(consumeCtx)
		cancel()
		if ok {
			if msg.ChatID != "telegram:99" {
				t.Errorf("announced chat id = %q, want telegram:99", msg.ChatID)
			}
			return
		}
	}
	t.Fatal("timed out waiting for subagent completion announcement")
}

func TestSpawnTool_Execute_DepthLimitRejected(t *testing.T) {
	mgr := NewSubagentManager(&fakeProvider{}, "fake-model", t.TempDir(), bus.New(), func() *Registry { return NewRegistry() }, SubagentConfig{MaxConcurrent: 2, MaxSpawnDepth: 1})
	tool := NewSpawnTool(mgr, "parent-1", 1) // already at the configured max depth

	result := tool.Execute(context.Background(), map[string]interface{}{"task": "nested task"})
	if !result.IsError {
		t.Error("expected an error result when the spawn depth limit is reached")
	}
}
