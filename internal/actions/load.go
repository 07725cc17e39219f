package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInterface is returned by Load when the action type has no
	// interface schema registered.
	ErrNoInterface = errors.New("actions: no interface registered")

	// ErrNoConnector is returned by Load when the action type has no
	// connector factory registered.
	ErrNoConnector = errors.New("actions: no connector registered")
)

// Load resolves the configured action type and assembles a runtime
// AgentAction. Unlike Describe it is fail fast: an unknown type, a missing
// interface, a missing connector, or a failing constructor is an error, so a
// broken action can never silently become a non-functional handle.
func (r *Registry) Load(cfg Config) (*AgentAction, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("actions: config missing type")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("actions: config for type %q missing name", cfg.Type)
	}
	if cfg.LLMLabel == "" {
		return nil, fmt.Errorf("actions: config for type %q missing llm_label", cfg.Type)
	}

	plugin, ok := r.Lookup(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("actions: unknown action type %q", cfg.Type)
	}
	if plugin.Interface == nil {
		return nil, fmt.Errorf("%w for action type %q", ErrNoInterface, cfg.Type)
	}
	if plugin.NewConnector == nil {
		return nil, fmt.Errorf("%w for action type %q", ErrNoConnector, cfg.Type)
	}

	// A connector-specific config supersedes the generic one.
	ccfg := ConnectorConfig(cfg)
	if plugin.NewConfig != nil {
		custom, err := plugin.NewConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("actions: build config for type %q: %w", cfg.Type, err)
		}
		ccfg = custom
	}

	conn, err := plugin.NewConnector(ccfg)
	if err != nil {
		return nil, fmt.Errorf("actions: construct connector for type %q: %w", cfg.Type, err)
	}

	return &AgentAction{
		Name:              cfg.Name,
		LLMLabel:          cfg.LLMLabel,
		ExcludeFromPrompt: cfg.ExcludeFromPrompt,
		Interface:         plugin.Interface,
		Connector:         conn,
	}, nil
}

// LoadAll loads every configured action, failing on the first broken one.
func (r *Registry) LoadAll(cfgs []Config) ([]*AgentAction, error) {
	loaded := make([]*AgentAction, 0, len(cfgs))
	for _, cfg := range cfgs {
		action, err := r.Load(cfg)
		if err != nil {
			return nil, err
		}
		r.logger.Info("action loaded", "type", cfg.Type, "label", action.LLMLabel)
		loaded = append(loaded, action)
	}
	return loaded, nil
}
