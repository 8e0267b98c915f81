package tools

import "context"

// SpawnTool exposes SubagentManager.Spawn to the model as the "spawn" tool.
// Routing (which channel/chat to announce the result to) comes from the
// calling turn's context, not from model-supplied arguments — the model
// only chooses what task to delegate and an optional label.
type SpawnTool struct {
	manager  *SubagentManager
	parentID string
	depth    int
}

func NewSpawnTool(manager *SubagentManager, parentID string, depth int) *SpawnTool {
	return &SpawnTool{manager: manager, parentID: parentID, depth: depth}
}

func (t *SpawnTool) Name() string { return "spawn" }
func (t *SpawnTool) Description() string {
	return "Delegate a focused task to a background subagent. Returns immediately; the result is reported back once the subagent finishes."
}
func (t *SpawnTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "The task for the subagent to complete",
			},
			"label": map[string]interface{}{
				"type":        "string",
				"description": "Short human-readable label for the task (optional)",
			},
		},
		"required": []string{"task"},
	}
}

func (t *SpawnTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	task, _ := args["task"].(string)
	if task == "" {
		return ErrorResult("task is required")
	}
	label, _ := args["label"].(string)

	channel := ToolChannelFromCtx(ctx)
	chatID := ToolChatIDFromCtx(ctx)

	ack, err := t.manager.Spawn(ctx, t.parentID, t.depth, task, label, channel, chatID)
	if err != nil {
		return ErrorResult(err.Error())
	}
	return AsyncResult(ack)
}
