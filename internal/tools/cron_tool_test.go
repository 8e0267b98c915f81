package tools

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nanorelay/nanorelay/internal/cron"
)

func newCronToolForTest(t *testing.T) (*CronTool, *cron.Store) {
	t.Helper()
	store := cron.NewStore(filepath.Join(t.TempDir(), "cron.json"))
	return NewCronTool(store), store
}

func TestCronTool_Name(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	if tool.Name() != "cron" {
		t.Errorf("Name() = %q, want cron", tool.Name())
	}
}

func TestCronTool_RequiresPrompt(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{"kind": cron.KindEvery})
	if !result.IsError {
		t.Error("expected an error result when prompt is missing")
	}
}

func TestCronTool_ScheduleAt(t *testing.T) {
	tool, store := newCronToolForTest(t)
	ctx := WithToolChatID(WithToolChannel(context.Background(), "telegram"), "42")

	at := time.Now().Add(time.Hour).Format(time.RFC3339)
	result := tool.Execute(ctx, map[string]interface{}{
		"kind":   cron.KindAt,
		"at":     at,
		"prompt": "say hi",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}

	jobs := store.List()
	if len(jobs) != 1 {
		t.Fatalf("expected one scheduled job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Kind != cron.KindAt || !job.DeleteAfterRun {
		t.Errorf("job = %+v, want kind=at delete_after_run=true", job)
	}
	if job.OriginChannel != "telegram" || job.OriginChatID != "42" {
		t.Errorf("job origin = %s/%s, want telegram/42", job.OriginChannel, job.OriginChatID)
	}
}

func TestCronTool_ScheduleAt_InvalidTimestamp(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"kind":   cron.KindAt,
		"at":     "not-a-timestamp",
		"prompt": "say hi",
	})
	if !result.IsError {
		t.Error("expected an error result for an invalid 'at' timestamp")
	}
}

func TestCronTool_ScheduleEvery_RequiresPositiveInterval(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"kind":   cron.KindEvery,
		"prompt": "say hi",
	})
	if !result.IsError {
		t.Error("expected an error result when interval_seconds is missing")
	}
}

func TestCronTool_ScheduleEvery(t *testing.T) {
	tool, store := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"kind":             cron.KindEvery,
		"interval_seconds": float64(60),
		"prompt":           "say hi",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %+v", result)
	}
	jobs := store.List()
	if len(jobs) != 1 || jobs[0].Interval != 60*time.Second {
		t.Errorf("jobs = %+v, want one job with a 60s interval", jobs)
	}
}

func TestCronTool_ScheduleCron_RequiresExpr(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"kind":   cron.KindCron,
		"prompt": "say hi",
	})
	if !result.IsError {
		t.Error("expected an error result when expr is missing")
	}
}

func TestCronTool_UnknownKind(t *testing.T) {
	tool, _ := newCronToolForTest(t)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"kind":   "bogus",
		"prompt": "say hi",
	})
	if !result.IsError {
		t.Error("expected an error result for an unknown kind")
	}
}
