package config

// ChannelsConfig holds per-transport configuration. Channels are optional:
// an empty/disabled section simply means that transport is never started.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Zalo     ZaloConfig     `json:"zalo"`
	Feishu   FeishuConfig   `json:"feishu"`
}

type TelegramConfig struct {
	Enabled        bool                `json:"enabled"`
	Token          string              `json:"token"`
	Proxy          string              `json:"proxy,omitempty"`
	AllowFrom      FlexibleStringSlice `json:"allowFrom"`
	RequireMention *bool               `json:"requireMention,omitempty"` // require @bot mention in groups (default true)
}

type DiscordConfig struct {
	Enabled        bool                `json:"enabled"`
	Token          string              `json:"token"`
	AllowFrom      FlexibleStringSlice `json:"allowFrom"`
	RequireMention *bool               `json:"requireMention,omitempty"` // require @bot mention in guild channels (default true)
}

type WhatsAppConfig struct {
	Enabled   bool                `json:"enabled"`
	BridgeURL string              `json:"bridgeUrl"`
	AllowFrom FlexibleStringSlice `json:"allowFrom"`
}

type ZaloConfig struct {
	Enabled   bool                `json:"enabled"`
	Token     string              `json:"token"`
	AllowFrom FlexibleStringSlice `json:"allowFrom"`
}

type FeishuConfig struct {
	Enabled           bool                `json:"enabled"`
	AppID             string              `json:"appId"`
	AppSecret         string              `json:"appSecret"`
	VerificationToken string              `json:"verificationToken,omitempty"`
	Domain            string              `json:"domain,omitempty"` // "" defaults to Lark global
	WebhookPort       int                 `json:"webhookPort,omitempty"`
	WebhookPath       string              `json:"webhookPath,omitempty"`
	TextChunkLimit    int                 `json:"textChunkLimit,omitempty"`
	AllowFrom         FlexibleStringSlice `json:"allowFrom"`
}

// ProvidersConfig maps a provider name to its credentials.
type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
}

type ProviderConfig struct {
	APIKey  string `json:"apiKey"`
	APIBase string `json:"apiBase,omitempty"`
}

// HasAnyProvider reports whether at least one provider has an API key set.
func (c *Config) HasAnyProvider() bool {
	return c.Providers.Anthropic.APIKey != "" || c.Providers.OpenAI.APIKey != ""
}

// ToolsConfig controls tool availability and web search/fetch behavior.
type ToolsConfig struct {
	RestrictToWorkspace bool           `json:"restrictToWorkspace"`
	Exec                ExecToolConfig `json:"exec"`
	Web                 WebToolsConfig `json:"web"`
	WebFetch            WebFetchConfig `json:"webFetch"`
}

// ExecToolConfig holds the legacy location of restrictToWorkspace, kept only
// so migrateLegacy can detect and move it onto ToolsConfig.RestrictToWorkspace.
type ExecToolConfig struct {
	RestrictToWorkspace *bool `json:"restrictToWorkspace,omitempty"`
}

type WebToolsConfig struct {
	Brave      BraveConfig      `json:"brave"`
	DuckDuckGo DuckDuckGoConfig `json:"duckduckgo"`
}

type BraveConfig struct {
	Enabled    bool   `json:"enabled"`
	APIKey     string `json:"apiKey"`
	MaxResults int    `json:"maxResults"`
}

type DuckDuckGoConfig struct {
	Enabled    bool `json:"enabled"`
	MaxResults int  `json:"maxResults"`
}

type WebFetchConfig struct {
	MaxChars     int `json:"maxChars"`
	CacheTTLSecs int `json:"cacheTtlSeconds"`
}

// SessionsConfig controls where session transcripts are stored.
type SessionsConfig struct {
	Storage string `json:"storage"`
}

// SubagentConfig controls delegated subagent spawning.
type SubagentConfig struct {
	MaxConcurrent int    `json:"maxConcurrent"`
	MaxSpawnDepth int    `json:"maxSpawnDepth"`
	Model         string `json:"model,omitempty"`
}

// HeartbeatConfig controls the periodic HEARTBEAT.md check.
type HeartbeatConfig struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval,omitempty"` // Go duration string, e.g. "30m"
}

// CronConfig controls the persistent job scheduler.
type CronConfig struct {
	StorePath   string `json:"storePath,omitempty"`
	TickSeconds int    `json:"tickSeconds,omitempty"`
}
