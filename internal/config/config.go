// Package config defines the on-disk configuration shape for a single-agent
// deployment: one provider/model pair, one workspace, a fixed set of
// channels, tools, and ambient scheduling (cron, heartbeat).
package config

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the full, resolved configuration for one agent process.
type Config struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace"`
	Provider  string `json:"provider"` // "anthropic" or "openai"
	Model     string `json:"model,omitempty"`

	MaxIterations int `json:"maxIterations,omitempty"`
	HistoryLimit  int `json:"historyLimit,omitempty"`

	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
	Sessions  SessionsConfig  `json:"sessions"`
	Subagent  SubagentConfig  `json:"subagent"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	Cron      CronConfig      `json:"cron"`
}
