package actions

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Plugin describes one registered action type: a schema slot, a connector
// factory slot, and an optional connector-specific config factory.
type Plugin struct {
	// Type is the action type key this plugin serves.
	Type string

	// Interface describes the action's input/output schema. A nil Interface
	// means the plugin ships no schema: Describe skips the action and Load
	// rejects it.
	Interface *Interface

	// NewConnector constructs the runtime connector. The cfg argument is the
	// generic Config unless NewConfig is set, in which case it is whatever
	// NewConfig returned.
	NewConnector func(cfg ConnectorConfig) (Connector, error)

	// NewConfig optionally decodes the raw declarative mapping into a
	// connector-specific configuration that supersedes the generic Config.
	NewConfig func(cfg Config) (ConnectorConfig, error)
}

// Registry maps action type keys to their plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
	logger  *slog.Logger
}

// NewRegistry creates an empty action registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		plugins: make(map[string]*Plugin),
		logger:  logger.With("component", "actions"),
	}
}

// Register adds a plugin under its action type key.
func (r *Registry) Register(p *Plugin) error {
	if p == nil || p.Type == "" {
		return fmt.Errorf("actions: plugin must have a type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[p.Type]; exists {
		return fmt.Errorf("actions: type %q already registered", p.Type)
	}
	r.plugins[p.Type] = p
	r.logger.Debug("action plugin registered", "type", p.Type)
	return nil
}

// Lookup returns the plugin registered for the given action type.
func (r *Registry) Lookup(typ string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[typ]
	return p, ok
}

// Types returns all registered action type keys, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for typ := range r.plugins {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
