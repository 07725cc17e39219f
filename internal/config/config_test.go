package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8420 {
		t.Errorf("Port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if len(cfg.Actions) == 0 {
		t.Error("expected default actions")
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled by default")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acton.json")

	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	cfg.Server.DataDir = filepath.Join(dir, "data")
	cfg.Agent.Name = "test-agent"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", loaded.Server.Port)
	}
	if loaded.Agent.Name != "test-agent" {
		t.Errorf("Name = %q, want test-agent", loaded.Agent.Name)
	}

	// Load should have created the data dir.
	if _, err := os.Stat(loaded.Server.DataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acton.json")
	if err := os.WriteFile(path, []byte("{not json"), 0640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadReplacesDefaultActions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acton.json")

	body := `{
		"server": {"port": 8420, "dataDir": "` + filepath.Join(dir, "data") + `"},
		"actions": [{"type": "speak", "name": "voice", "llm_label": "speak"}]
	}`
	if err := os.WriteFile(path, []byte(body), 0640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(cfg.Actions))
	}
}

func TestActionConfigs(t *testing.T) {
	cfg := DefaultConfig()

	parsed, err := cfg.ActionConfigs()
	if err != nil {
		t.Fatalf("ActionConfigs: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("expected 3 configs, got %d", len(parsed))
	}
	if parsed[0].Type != "speak" || parsed[0].LLMLabel != "speak" {
		t.Errorf("unexpected first config: %+v", parsed[0])
	}
}

func TestActionConfigsRejectsMissingType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Actions = append(cfg.Actions, map[string]any{"name": "broken"})

	if _, err := cfg.ActionConfigs(); err == nil {
		t.Error("expected error for action without type")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}

	cfg = DefaultConfig()
	cfg.Server.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}

	cfg = DefaultConfig()
	cfg.Server.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty data dir")
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.DataDir = "/tmp/acton-data"

	if got := cfg.HistoryPath(); got != "/tmp/acton-data/history.db" {
		t.Errorf("HistoryPath = %q", got)
	}

	cfg.History.Path = "/custom/history.db"
	if got := cfg.HistoryPath(); got != "/custom/history.db" {
		t.Errorf("HistoryPath = %q", got)
	}
}
