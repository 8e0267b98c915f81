package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/nanorelay/nanorelay/internal/cron"
)

// CronTool exposes cron.Store to the model as the "cron" tool, scoping
// every job it schedules to the chat that requested it via the turn's
// routing context.
type CronTool struct {
	store *cron.Store
}

func NewCronTool(store *cron.Store) *CronTool {
	return &CronTool{store: store}
}

func (t *CronTool) Name() string { return "cron" }
func (t *CronTool) Description() string {
	return "Schedule a future message to yourself: once at an absolute time, repeating on an interval, or on a cron expression"
}
func (t *CronTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"kind": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"at", "every", "cron"},
				"description": "Schedule kind: 'at' (absolute RFC3339 time), 'every' (interval in seconds), or 'cron' (cron expression)",
			},
			"at": map[string]interface{}{
				"type":        "string",
				"description": "RFC3339 timestamp, required when kind is 'at'",
			},
			"interval_seconds": map[string]interface{}{
				"type":        "integer",
				"description": "Interval in seconds, required when kind is 'every'",
			},
			"expr": map[string]interface{}{
				"type":        "string",
				"description": "Five-field cron expression, required when kind is 'cron'",
			},
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "The instruction to run through the agent when the job fires",
			},
			"delete_after_run": map[string]interface{}{
				"type":        "boolean",
				"description": "Remove the job after it fires once (default false; 'at' jobs are always removed after firing)",
			},
		},
		"required": []string{"kind", "prompt"},
	}
}

func (t *CronTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	kind, _ := args["kind"].(string)
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return ErrorResult("prompt is required")
	}

	job := cron.Job{
		AsAgentTurn:   true,
		Content:       prompt,
		OriginChannel: ToolChannelFromCtx(ctx),
		OriginChatID:  ToolChatIDFromCtx(ctx),
	}
	if del, ok := args["delete_after_run"].(bool); ok {
		job.DeleteAfterRun = del
	}

	switch kind {
	case cron.KindAt:
		atStr, _ := args["at"].(string)
		at, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			return ErrorResult(fmt.Sprintf("invalid 'at' timestamp: %v", err))
		}
		job.Kind = cron.KindAt
		job.At = at
		job.DeleteAfterRun = true

	case cron.KindEvery:
		seconds, ok := args["interval_seconds"].(float64)
		if !ok || seconds <= 0 {
			return ErrorResult("interval_seconds is required and must be positive for kind 'every'")
		}
		job.Kind = cron.KindEvery
		job.Interval = time.Duration(seconds) * time.Second

	case cron.KindCron:
		expr, _ := args["expr"].(string)
		if expr == "" {
			return ErrorResult("expr is required for kind 'cron'")
		}
		job.Kind = cron.KindCron
		job.Expr = expr

	default:
		return ErrorResult(fmt.Sprintf("unknown kind %q", kind))
	}

	scheduled, err := t.store.Add(job)
	if err != nil {
		return ErrorResult(err.Error())
	}
	return NewResult(fmt.Sprintf("Scheduled job %s (%s).", scheduled.ID, scheduled.Kind))
}
