package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json5"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != DefaultAgentName {
		t.Errorf("Name = %q, want %q", cfg.Name, DefaultAgentName)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Provider)
	}
}

func TestLoad_ParsesJSON5AndOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	contents := `{
		// comment allowed in json5
		name: "Nimbus",
		provider: "openai",
		model: "gpt-5",
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "Nimbus" {
		t.Errorf("Name = %q, want Nimbus", cfg.Name)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	// Fields absent from the file should retain Default()'s values.
	if cfg.MaxIterations != 20 {
		t.Errorf("MaxIterations = %d, want 20 (default)", cfg.MaxIterations)
	}
}

func TestMigrateLegacy_MovesExecRestrictToWorkspace(t *testing.T) {
	restrict := true
	cfg := Default()
	cfg.Tools.RestrictToWorkspace = false
	cfg.Tools.Exec.RestrictToWorkspace = &restrict

	migrateLegacy(cfg)

	if !cfg.Tools.RestrictToWorkspace {
		t.Error("RestrictToWorkspace was not migrated to true")
	}
	if cfg.Tools.Exec.RestrictToWorkspace != nil {
		t.Error("legacy field was not cleared after migration")
	}
}

func TestMigrateLegacy_NoOpWhenLegacyFieldUnset(t *testing.T) {
	cfg := Default()
	cfg.Tools.RestrictToWorkspace = true

	migrateLegacy(cfg)

	if !cfg.Tools.RestrictToWorkspace {
		t.Error("RestrictToWorkspace changed unexpectedly")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NANORELAY_WORKSPACE", "/tmp/custom-workspace")
	t.Setenv("NANORELAY_PROVIDER", "openai")
	t.Setenv("NANORELAY_TELEGRAM_TOKEN", "tg-token")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Workspace != "/tmp/custom-workspace" {
		t.Errorf("Workspace = %q, want /tmp/custom-workspace", cfg.Workspace)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.Channels.Telegram.Token != "tg-token" || !cfg.Channels.Telegram.Enabled {
		t.Error("telegram channel was not enabled by its token env var")
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := ExpandHome("~/nanorelay")
	want := filepath.Join(home, "nanorelay")
	if got != want {
		t.Errorf("ExpandHome() = %q, want %q", got, want)
	}
	if ExpandHome("/abs/path") != "/abs/path" {
		t.Error("ExpandHome should leave absolute paths untouched")
	}
}

func TestHasAnyProvider(t *testing.T) {
	cfg := Default()
	if cfg.HasAnyProvider() {
		t.Error("HasAnyProvider() = true on a fresh default config")
	}
	cfg.Providers.Anthropic.APIKey = "sk-test"
	if !cfg.HasAnyProvider() {
		t.Error("HasAnyProvider() = false with an API key set")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Name = "RoundTrip"
	cfg.Provider = "openai"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Name != "RoundTrip" || loaded.Provider != "openai" {
		t.Errorf("round trip mismatch: got Name=%q Provider=%q", loaded.Name, loaded.Provider)
	}
}

func TestHashIsDeterministicAndChangesWithContent(t *testing.T) {
	cfg := Default()
	h1 := cfg.Hash()
	h2 := cfg.Hash()
	if h1 != h2 {
		t.Errorf("Hash() not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 12 {
		t.Errorf("Hash() length = %d, want 12", len(h1))
	}

	cfg.Name = "changed"
	if cfg.Hash() == h1 {
		t.Error("Hash() did not change after modifying config content")
	}
}

func TestWorkspacePath(t *testing.T) {
	cfg := Default()
	cfg.Workspace = "/srv/nanorelay"
	got := cfg.WorkspacePath("sessions", "abc.json")
	want := filepath.Join("/srv/nanorelay", "sessions", "abc.json")
	if got != want {
		t.Errorf("WorkspacePath() = %q, want %q", got, want)
	}
}
