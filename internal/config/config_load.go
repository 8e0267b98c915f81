package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

const DefaultAgentName = "Nanorelay"

// Default returns a Config with sensible defaults for a fresh install.
func Default() *Config {
	home, _ := os.UserHomeDir()
	workspace := filepath.Join(home, "nanorelay")

	return &Config{
		Name:          DefaultAgentName,
		Workspace:     workspace,
		Provider:      "anthropic",
		MaxIterations: 20,
		HistoryLimit:  50,
		Sessions: SessionsConfig{
			Storage: filepath.Join(workspace, "sessions"),
		},
		Subagent: SubagentConfig{
			MaxConcurrent: 4,
			MaxSpawnDepth: 1,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: "30m",
		},
		Cron: CronConfig{
			StorePath:   filepath.Join(workspace, "cron.json"),
			TickSeconds: 60,
		},
		Tools: ToolsConfig{
			RestrictToWorkspace: true,
			WebFetch: WebFetchConfig{
				MaxChars:     8000,
				CacheTTLSecs: 300,
			},
			Web: WebToolsConfig{
				DuckDuckGo: DuckDuckGoConfig{Enabled: true, MaxResults: 5},
			},
		},
	}
}

// Load reads a JSON5 config file at path, falling back to Default() overlaid
// with environment variables when the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnvOverrides()
	var explicit struct {
		Tools struct {
			RestrictToWorkspace *bool `json:"restrictToWorkspace"`
		} `json:"tools"`
	}
	if err := json5.Unmarshal(data, &explicit); err == nil && explicit.Tools.RestrictToWorkspace != nil {
		// The current key is set in the file, so the legacy one is ignored.
		cfg.Tools.Exec.RestrictToWorkspace = nil
	}
	migrateLegacy(cfg)
	return cfg, nil
}

// migrateLegacy moves settings from a deprecated location to their current
// one, so old config files keep working. The only case today:
// tools.exec.restrictToWorkspace -> tools.restrictToWorkspace.
func migrateLegacy(cfg *Config) {
	if cfg.Tools.Exec.RestrictToWorkspace != nil {
		cfg.Tools.RestrictToWorkspace = *cfg.Tools.Exec.RestrictToWorkspace
		cfg.Tools.Exec.RestrictToWorkspace = nil
	}
}

// ApplyEnvOverrides overlays NANORELAY_* environment variables onto cfg,
// each one overriding exactly one leaf config field.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NANORELAY_WORKSPACE"); v != "" {
		c.Workspace = ExpandHome(v)
	}
	if v := os.Getenv("NANORELAY_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("NANORELAY_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("NANORELAY_ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("NANORELAY_OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("NANORELAY_BRAVE_API_KEY"); v != "" {
		c.Tools.Web.Brave.APIKey = v
		c.Tools.Web.Brave.Enabled = true
	}

	if v := os.Getenv("NANORELAY_TELEGRAM_TOKEN"); v != "" {
		c.Channels.Telegram.Token = v
		c.Channels.Telegram.Enabled = true
	}
	if v := os.Getenv("NANORELAY_DISCORD_TOKEN"); v != "" {
		c.Channels.Discord.Token = v
		c.Channels.Discord.Enabled = true
	}
	if v := os.Getenv("NANORELAY_WHATSAPP_BRIDGE_URL"); v != "" {
		c.Channels.WhatsApp.BridgeURL = v
		c.Channels.WhatsApp.Enabled = true
	}
	if v := os.Getenv("NANORELAY_ZALO_TOKEN"); v != "" {
		c.Channels.Zalo.Token = v
		c.Channels.Zalo.Enabled = true
	}
	if v := os.Getenv("NANORELAY_FEISHU_APP_ID"); v != "" {
		c.Channels.Feishu.AppID = v
	}
	if v := os.Getenv("NANORELAY_FEISHU_APP_SECRET"); v != "" {
		c.Channels.Feishu.AppSecret = v
	}
	if c.Channels.Feishu.AppID != "" && c.Channels.Feishu.AppSecret != "" {
		c.Channels.Feishu.Enabled = true
	}

	if v := os.Getenv("NANORELAY_SESSIONS_STORAGE"); v != "" {
		c.Sessions.Storage = ExpandHome(v)
	}
	if v := os.Getenv("NANORELAY_HEARTBEAT_INTERVAL"); v != "" {
		c.Heartbeat.Interval = v
	}
	if v := os.Getenv("NANORELAY_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIterations = n
		}
	}
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Hash returns a short content hash of cfg, used to detect config drift
// between process restarts.
func (c *Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:12]
}

// WorkspacePath resolves a path relative to the configured workspace.
func (c *Config) WorkspacePath(parts ...string) string {
	all := append([]string{ExpandHome(c.Workspace)}, parts...)
	return filepath.Join(all...)
}

// ExpandHome expands a leading "~" to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
