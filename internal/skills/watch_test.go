package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_Get_ReturnsInitialLoadSynchronously(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, filepath.Join(workspace, "skills"), "greeter", "---\ndescription: hi\n---\nbody")

	cache := NewCache(NewLoader(workspace, t.TempDir()))
	got := cache.Get()
	if len(got) != 1 || got[0].Name != "greeter" {
		t.Errorf("Get() = %+v, want one 'greeter' skill", got)
	}
}

func TestCache_Watch_ReloadsOnNewSkillFile(t *testing.T) {
	workspace := t.TempDir()
	if err := os.MkdirAll(filepath.Join(workspace, "skills"), 0o755); err != nil {
		t.Fatalf("mkdir skills dir: %v", err)
	}
	loader := NewLoader(workspace, t.TempDir())
	cache := NewCache(loader)

	if len(cache.Get()) != 0 {
		t.Fatalf("expected no skills before any are written")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cache.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer cache.Stop()

	writeSkill(t, filepath.Join(workspace, "skills"), "new-skill", "---\ndescription: new\n---\nbody")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(cache.Get()) == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("cache was not refreshed after a new skill file was added")
}

func TestCache_Stop_IsIdempotentAndSafeWithoutWatch(t *testing.T) {
	cache := NewCache(NewLoader(t.TempDir(), t.TempDir()))
	cache.Stop() // must not panic even though Watch was never called
	cache.Stop() // a second call must be a no-op as well
}
