package actions

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingConnector remembers the config it was constructed with.
type recordingConnector struct {
	cfg ConnectorConfig
}

func (recordingConnector) Connect(ctx context.Context, output any) error { return nil }

// voiceConfig is a connector-specific configuration with an extra field
// decoded from the raw mapping.
type voiceConfig struct {
	Config
	Voice string
}

func samplePlugin() *Plugin {
	return &Plugin{
		Type:      "sample",
		Interface: stringInterface(),
		NewConnector: func(cfg ConnectorConfig) (Connector, error) {
			return recordingConnector{cfg: cfg}, nil
		},
	}
}

func TestLoadSuccess(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(samplePlugin()); err != nil {
		t.Fatal(err)
	}

	action, err := reg.Load(Config{Type: "sample", LLMLabel: "test_label", Name: "test_name"})
	if err != nil {
		t.Fatal(err)
	}

	if action.Name != "test_name" {
		t.Errorf("expected name test_name, got %q", action.Name)
	}
	if action.LLMLabel != "test_label" {
		t.Errorf("expected llm_label test_label, got %q", action.LLMLabel)
	}
	if action.ExcludeFromPrompt {
		t.Error("expected exclude_from_prompt to default to false")
	}
	if action.Interface == nil {
		t.Error("expected resolved interface on action")
	}
	if action.Connector == nil {
		t.Error("expected constructed connector on action")
	}
}

func TestLoadWithCustomConfig(t *testing.T) {
	reg := NewRegistry(testLogger())
	plugin := samplePlugin()
	plugin.NewConfig = func(cfg Config) (ConnectorConfig, error) {
		voice, _ := cfg.Raw["voice"].(string)
		return voiceConfig{Config: cfg, Voice: voice}, nil
	}
	if err := reg.Register(plugin); err != nil {
		t.Fatal(err)
	}

	action, err := reg.Load(Config{
		Type:     "sample",
		LLMLabel: "label",
		Name:     "name",
		Raw:      map[string]any{"voice": "alto"},
	})
	if err != nil {
		t.Fatal(err)
	}

	rc, ok := action.Connector.(recordingConnector)
	if !ok {
		t.Fatalf("unexpected connector type %T", action.Connector)
	}
	vc, ok := rc.cfg.(voiceConfig)
	if !ok {
		t.Fatalf("connector got %T, want the connector-specific config", rc.cfg)
	}
	if vc.Voice != "alto" {
		t.Errorf("expected custom field alto, got %q", vc.Voice)
	}
	if vc.Base().LLMLabel != "label" {
		t.Errorf("custom config lost generic fields: %+v", vc.Base())
	}
}

func TestLoadNoConnector(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(&Plugin{Type: "sample", Interface: stringInterface()}); err != nil {
		t.Fatal(err)
	}

	_, err := reg.Load(Config{Type: "sample", LLMLabel: "label", Name: "name"})
	if err == nil {
		t.Fatal("expected error when connector slot is empty")
	}
	if !errors.Is(err, ErrNoConnector) {
		t.Errorf("expected ErrNoConnector, got %v", err)
	}
	if !strings.Contains(err.Error(), "connector") {
		t.Errorf("error message must mention connector: %v", err)
	}
}

func TestLoadNoInterface(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(&Plugin{Type: "sample", NewConnector: newConnector}); err != nil {
		t.Fatal(err)
	}

	_, err := reg.Load(Config{Type: "sample", LLMLabel: "label", Name: "name"})
	if err == nil {
		t.Fatal("expected error when interface slot is empty")
	}
	if !errors.Is(err, ErrNoInterface) {
		t.Errorf("expected ErrNoInterface, got %v", err)
	}
}

func TestLoadUnknownType(t *testing.T) {
	reg := NewRegistry(testLogger())

	if _, err := reg.Load(Config{Type: "nonexistent", LLMLabel: "label", Name: "name"}); err == nil {
		t.Fatal("expected error for unknown action type")
	}
}

func TestLoadDefaultExcludeFromPrompt(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(samplePlugin()); err != nil {
		t.Fatal(err)
	}

	action, err := reg.Load(Config{Type: "sample", LLMLabel: "label", Name: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if action.ExcludeFromPrompt {
		t.Error("expected exclude_from_prompt false by default")
	}
}

func TestLoadExcludeFromPromptTrue(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(samplePlugin()); err != nil {
		t.Fatal(err)
	}

	action, err := reg.Load(Config{
		Type:              "sample",
		LLMLabel:          "label",
		Name:              "name",
		ExcludeFromPrompt: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !action.ExcludeFromPrompt {
		t.Error("expected exclude_from_prompt true to carry through")
	}
}

func TestLoadMissingMetadata(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(samplePlugin()); err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Load(Config{Type: "sample", LLMLabel: "label"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := reg.Load(Config{Type: "sample", Name: "name"}); err == nil {
		t.Error("expected error for missing llm_label")
	}
}

func TestLoadConnectorConstructionFailure(t *testing.T) {
	reg := NewRegistry(testLogger())
	plugin := samplePlugin()
	plugin.NewConnector = func(cfg ConnectorConfig) (Connector, error) {
		return nil, errors.New("device unavailable")
	}
	if err := reg.Register(plugin); err != nil {
		t.Fatal(err)
	}

	_, err := reg.Load(Config{Type: "sample", LLMLabel: "label", Name: "name"})
	if err == nil {
		t.Fatal("expected connector construction error to propagate")
	}
	if !strings.Contains(err.Error(), "device unavailable") {
		t.Errorf("expected wrapped constructor error, got %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(samplePlugin()); err != nil {
		t.Fatal(err)
	}

	loaded, err := reg.LoadAll([]Config{
		{Type: "sample", LLMLabel: "a", Name: "first"},
		{Type: "sample", LLMLabel: "b", Name: "second"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(loaded))
	}

	// Fail fast on the first broken config.
	if _, err := reg.LoadAll([]Config{
		{Type: "sample", LLMLabel: "a", Name: "first"},
		{Type: "missing", LLMLabel: "b", Name: "second"},
	}); err == nil {
		t.Error("expected LoadAll to fail on unknown type")
	}
}
