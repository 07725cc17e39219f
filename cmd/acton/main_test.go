package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/actonlabs/acton/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acton.json")

	if code := initCommand(path); code != 0 {
		t.Fatalf("initCommand = %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	// Second init must refuse to overwrite.
	if code := initCommand(path); code == 0 {
		t.Error("expected non-zero exit for existing config")
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acton.json")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg, err := loadConfig(path, logger)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 8420 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not saved: %v", err)
	}
}

func TestSetupLoadsBuiltinActions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acton.json")

	cfg := config.DefaultConfig()
	cfg.Server.DataDir = filepath.Join(dir, "data")
	cfg.Plugins.Enabled = false
	cfg.History.Enabled = false
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	app, err := setup(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer closeApp(app)

	infos := app.Orchestrator.Actions()
	if len(infos) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(infos))
	}

	prompt := app.Orchestrator.Prompt()
	for _, token := range []string{"Speak a sentence", "Move the agent's body", "Pause for a number of seconds"} {
		if !strings.Contains(prompt, token) {
			t.Errorf("prompt missing %q", token)
		}
	}
}
