// Package config loads and saves the agent configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/actonlabs/acton/internal/actions"
	"github.com/actonlabs/acton/internal/scheduler"
)

// Config holds all agent configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Agent identity and prompt preamble
	Agent AgentConfig `json:"agent"`

	// Action configurations, one entry per action to load. Each entry is a
	// raw mapping so action types can carry their own extra keys.
	Actions []map[string]any `json:"actions"`

	// External plugin settings
	Plugins PluginsConfig `json:"plugins"`

	// Invocation history settings
	History HistoryConfig `json:"history"`

	// Scheduled trigger settings
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	DataDir  string `json:"dataDir"`
	LogLevel string `json:"logLevel"`
}

type AgentConfig struct {
	Name     string `json:"name"`
	Preamble string `json:"preamble,omitempty"`
}

type PluginsConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"` // defaults to ~/.acton/actions
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // defaults to <dataDir>/history.db
}

// SchedulerConfig holds scheduled trigger configuration.
type SchedulerConfig struct {
	Enabled  bool                 `json:"enabled"`
	Triggers []*scheduler.Trigger `json:"triggers,omitempty"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8420,
			DataDir:  "./data",
			LogLevel: "info",
		},
		Agent: AgentConfig{
			Name:     "acton",
			Preamble: "You can perform the following actions.",
		},
		Actions: []map[string]any{
			{"type": "speak", "name": "speak", "llm_label": "speak"},
			{"type": "move", "name": "move", "llm_label": "move"},
			{"type": "wait", "name": "wait", "llm_label": "wait"},
		},
		Plugins: PluginsConfig{Enabled: true},
		History: HistoryConfig{Enabled: true},
	}
}

// Load reads config from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Actions = nil // file action list replaces the defaults
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.Server.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return cfg, nil
}

// Save writes config to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0640)
}

// Validate checks the configuration for values the runtime cannot use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Server.DataDir == "" {
		return fmt.Errorf("config: dataDir required")
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Server.LogLevel)
	}
	return nil
}

// ActionConfigs parses the raw action entries into typed configs, failing on
// the first invalid entry.
func (c *Config) ActionConfigs() ([]actions.Config, error) {
	cfgs := make([]actions.Config, 0, len(c.Actions))
	for i, raw := range c.Actions {
		cfg, err := actions.ParseConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("config: action %d: %w", i, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// HistoryPath resolves the invocation log path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.Server.DataDir, "history.db")
}
