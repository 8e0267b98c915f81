package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSkill(t *testing.T, root, dirName, content string) {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("write SKILL.md: %v", err)
	}
}

func TestLoader_Load_ParsesFrontmatterAndBody(t *testing.T) {
	workspace := t.TempDir()
	builtin := t.TempDir()

	writeSkill(t, filepath.Join(workspace, "skills"), "weather", `---
name: weather
description: "Check the current weather"
metadata:
  nanobot:
    always: true
    requires:
      bins:
        - curl
      env:
        - WEATHER_API_KEY
---

# Weather

Use curl to hit the weather API.`)

	loader := NewLoader(workspace, builtin)
	all := loader.Load()

	if len(all) != 1 {
		t.Fatalf("Load() = %d skills, want 1", len(all))
	}
	s := all[0]
	if s.Name != "weather" || s.Description != "Check the current weather" {
		t.Errorf("skill = %+v", s)
	}
	if !s.Always {
		t.Error("Always should be true")
	}
	if len(s.Requires.Bins) != 1 || s.Requires.Bins[0] != "curl" {
		t.Errorf("Requires.Bins = %v", s.Requires.Bins)
	}
	if len(s.Requires.Env) != 1 || s.Requires.Env[0] != "WEATHER_API_KEY" {
		t.Errorf("Requires.Env = %v", s.Requires.Env)
	}
	wantBody := "# Weather\n\nUse curl to hit the weather API."
	if s.Body != wantBody {
		t.Errorf("Body = %q, want %q", s.Body, wantBody)
	}
}

func TestLoader_Load_WorkspaceShadowsBuiltin(t *testing.T) {
	workspace := t.TempDir()
	builtin := t.TempDir()

	writeSkill(t, filepath.Join(builtin, "skills"), "greeter", "---\ndescription: builtin version\n---\nbuiltin body")
	writeSkill(t, filepath.Join(workspace, "skills"), "greeter", "---\ndescription: workspace version\n---\nworkspace body")

	loader := NewLoader(workspace, builtin)
	all := loader.Load()

	if len(all) != 1 {
		t.Fatalf("Load() = %d skills, want 1", len(all))
	}
	if all[0].Description != "workspace version" {
		t.Errorf("Description = %q, want workspace version to shadow builtin", all[0].Description)
	}
}

func TestLoader_Load_SortedByName(t *testing.T) {
	workspace := t.TempDir()
	builtin := t.TempDir()

	writeSkill(t, filepath.Join(workspace, "skills"), "zeta", "---\ndescription: z\n---\nz")
	writeSkill(t, filepath.Join(workspace, "skills"), "alpha", "---\ndescription: a\n---\na")

	loader := NewLoader(workspace, builtin)
	all := loader.Load()

	if len(all) != 2 || all[0].Name != "alpha" || all[1].Name != "zeta" {
		t.Errorf("Load() order = %+v", all)
	}
}

func TestLoader_Load_MissingDirsReturnEmpty(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nonexistent"), filepath.Join(t.TempDir(), "also-nonexistent"))
	if all := loader.Load(); len(all) != 0 {
		t.Errorf("Load() = %v, want empty", all)
	}
}

func TestLoader_Load_NoFrontmatterStillParsesAsBody(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, filepath.Join(workspace, "skills"), "plain", "just a markdown body, no frontmatter")

	loader := NewLoader(workspace, t.TempDir())
	all := loader.Load()

	if len(all) != 1 {
		t.Fatalf("Load() = %d skills, want 1", len(all))
	}
	if all[0].Body != "just a markdown body, no frontmatter" {
		t.Errorf("Body = %q", all[0].Body)
	}
	if all[0].Name != "plain" {
		t.Errorf("Name = %q, want dir name fallback 'plain'", all[0].Name)
	}
}

func TestSkill_Available_RequiresMissingBin(t *testing.T) {
	s := Skill{Requires: Requires{Bins: []string{"a-binary-that-almost-certainly-does-not-exist-xyz"}}}
	if s.Available() {
		t.Error("Available() should be false for a missing binary")
	}
	if s.MissingRequirements() == "" {
		t.Error("MissingRequirements() should describe the missing binary")
	}
}

func TestSkill_Available_TrueWithNoRequirements(t *testing.T) {
	s := Skill{}
	if !s.Available() {
		t.Error("Available() should be true when Requires is empty")
	}
}

func TestAlwaysOn_FiltersToAvailableAlwaysSkills(t *testing.T) {
	all := []Skill{
		{Name: "a", Always: true},
		{Name: "b", Always: false},
		{Name: "c", Always: true, Requires: Requires{Bins: []string{"a-binary-that-almost-certainly-does-not-exist-xyz"}}},
	}
	got := AlwaysOn(all)
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("AlwaysOn() = %+v, want only skill 'a'", got)
	}
}

func TestManifest_IncludesMissingRequirementsWhenUnavailable(t *testing.T) {
	all := []Skill{
		{Name: "a", Description: "desc a", Path: "/skills/a"},
		{Name: "b", Description: "desc b", Path: "/skills/b", Requires: Requires{Bins: []string{"a-binary-that-almost-certainly-does-not-exist-xyz"}}},
	}
	out := Manifest(all)
	if out == "" {
		t.Fatal("Manifest() returned empty string")
	}
	if !strings.Contains(out, `name="a"`) || !strings.Contains(out, `name="b"`) {
		t.Errorf("Manifest() missing skill entries: %s", out)
	}
	if !strings.Contains(out, "<requires>") {
		t.Error("Manifest() should include <requires> for an unavailable skill")
	}
}

func TestManifest_EscapesNameAndDescription(t *testing.T) {
	all := []Skill{
		{Name: "a & <b>", Description: "uses <tags> & \"quotes\"", Path: "/skills/a"},
	}
	out := Manifest(all)
	if strings.Contains(out, "<b>") || strings.Contains(out, "<tags>") {
		t.Errorf("Manifest() left raw '<'/'>' unescaped: %s", out)
	}
	if !strings.Contains(out, "a &amp; &lt;b&gt;") {
		t.Errorf("Manifest() did not escape skill name: %s", out)
	}
	if !strings.Contains(out, "uses &lt;tags&gt; &amp; ") {
		t.Errorf("Manifest() did not escape skill description: %s", out)
	}
}
