package sessions

import (
	"path/filepath"
	"testing"
)

func TestSessionKey(t *testing.T) {
	if got, want := SessionKey("telegram", "123"), "telegram:123"; got != want {
		t.Errorf("SessionKey() = %q, want %q", got, want)
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := sanitizeFilename("telegram:123/456")
	if got != "telegram_123456" {
		t.Errorf("sanitizeFilename() = %q, want %q", got, "telegram_123456")
	}
}

func TestManager_GetOrCreate_NewSession(t *testing.T) {
	m := NewManager(t.TempDir())
	s := m.GetOrCreate("telegram:1")
	if s.Key != "telegram:1" {
		t.Errorf("Key = %q, want telegram:1", s.Key)
	}
	if len(s.Turns) != 0 {
		t.Error("new session should have no turns")
	}
}

func TestManager_GetOrCreate_ReturnsCachedInstance(t *testing.T) {
	m := NewManager(t.TempDir())
	first := m.GetOrCreate("telegram:1")
	second := m.GetOrCreate("telegram:1")
	if first != second {
		t.Error("GetOrCreate should return the same cached *Session pointer")
	}
}

func TestManager_AddTurnThenGetHistory(t *testing.T) {
	m := NewManager(t.TempDir())
	key := "telegram:1"
	m.AddTurn(key, Turn{Role: "user", Content: "hi"})
	m.AddTurn(key, Turn{Role: "assistant", Content: "hello"})

	history := m.GetHistory(key, 0)
	if len(history) != 2 {
		t.Fatalf("GetHistory() = %d turns, want 2", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "hi" {
		t.Errorf("history[0] = %+v", history[0])
	}
}

func TestManager_GetHistory_RespectsMaxLimit(t *testing.T) {
	m := NewManager(t.TempDir())
	key := "telegram:1"
	for i := 0; i < 5; i++ {
		m.AddTurn(key, Turn{Role: "user", Content: "msg"})
	}
	if got := len(m.GetHistory(key, 2)); got != 2 {
		t.Errorf("GetHistory(max=2) = %d turns, want 2", got)
	}
}

func TestManager_GetHistory_StripsToolCallMetadata(t *testing.T) {
	m := NewManager(t.TempDir())
	key := "telegram:1"
	m.AddTurn(key, Turn{Role: "tool", Content: "result", Name: "read_file", ToolCallID: "abc"})

	history := m.GetHistory(key, 0)
	if history[0].Name != "" || history[0].ToolCallID != "" {
		t.Errorf("GetHistory should strip tool metadata, got %+v", history[0])
	}
}

func TestManager_SaveThenReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := "telegram:1"

	m := NewManager(dir)
	m.AddTurn(key, Turn{Role: "user", Content: "hi"})
	m.AddTurn(key, Turn{Role: "assistant", Content: "hello"})
	if err := m.Save(key); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := NewManager(dir)
	s := reloaded.GetOrCreate(key)
	if len(s.Turns) != 2 {
		t.Fatalf("reloaded session has %d turns, want 2", len(s.Turns))
	}
	if s.Turns[1].Content != "hello" {
		t.Errorf("Turns[1].Content = %q, want hello", s.Turns[1].Content)
	}
}

func TestManager_Delete_RemovesFromCacheAndDisk(t *testing.T) {
	dir := t.TempDir()
	key := "telegram:1"

	m := NewManager(dir)
	m.AddTurn(key, Turn{Role: "user", Content: "hi"})
	if err := m.Save(key); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := m.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := filepath.Glob(filepath.Join(dir, "*.jsonl")); err != nil {
		t.Fatalf("glob error = %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if len(matches) != 0 {
		t.Errorf("session file still present after Delete: %v", matches)
	}

	fresh := m.GetOrCreate(key)
	if len(fresh.Turns) != 0 {
		t.Error("deleted session should come back empty on next GetOrCreate")
	}
}

func TestManager_Save_NoOpWhenDirEmpty(t *testing.T) {
	m := NewManager("")
	m.AddTurn("telegram:1", Turn{Role: "user", Content: "hi"})
	if err := m.Save("telegram:1"); err != nil {
		t.Errorf("Save() with no dir configured should be a no-op, got error: %v", err)
	}
}
