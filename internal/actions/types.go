// Package actions maps declarative action configurations to runtime action
// handles. Each action type registers a Plugin carrying an interface schema
// and a connector factory; the registry renders LLM-facing prompt text from
// the schemas and assembles ready-to-dispatch AgentActions.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
)

// Config is the declarative configuration for a single action.
type Config struct {
	// Type selects which registered plugin serves this action.
	Type string `json:"type"`
	// Name is the display name of the action instance.
	Name string `json:"name,omitempty"`
	// LLMLabel is the identifier the LLM uses to invoke the action.
	LLMLabel string `json:"llm_label,omitempty"`
	// ExcludeFromPrompt suppresses the action in LLM-facing prompt text.
	ExcludeFromPrompt bool `json:"exclude_from_prompt,omitempty"`

	// Raw preserves the full original mapping so connector-specific
	// configurations can pick up extra fields.
	Raw map[string]any `json:"-"`
}

// Base returns the generic configuration. It makes Config satisfy
// ConnectorConfig so it can be handed to connector factories directly.
func (c Config) Base() Config { return c }

// ConnectorConfig is the value a connector factory receives. Config
// implements it, and connector-specific configurations embed Config to
// inherit Base.
type ConnectorConfig interface {
	Base() Config
}

// ParseConfig builds a Config from a raw configuration mapping.
// The mapping must contain a "type" key.
func ParseConfig(raw map[string]any) (Config, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("actions: encode config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("actions: decode config: %w", err)
	}
	if cfg.Type == "" {
		return Config{}, fmt.Errorf("actions: config missing type")
	}
	cfg.Raw = raw
	return cfg, nil
}

// FieldKind discriminates how a field's value domain is described.
type FieldKind int

const (
	// FieldPrimitive is a single-valued field described by its type name.
	FieldPrimitive FieldKind = iota
	// FieldEnum is a closed set of named string values.
	FieldEnum
)

// Field describes one field of an interface's input or output record.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
	// TypeName is the primitive type name, e.g. "string". FieldPrimitive only.
	TypeName string `json:"type,omitempty"`
	// Values lists the allowed named values. FieldEnum only.
	Values []string `json:"values,omitempty"`
}

// Interface pairs an action's input and output schemas with its
// human-readable description.
type Interface struct {
	// Doc is prefixed verbatim to the generated prompt text when present.
	Doc    string  `json:"doc,omitempty"`
	Input  []Field `json:"input"`
	Output []Field `json:"output,omitempty"`
}

// Connector executes an action. Implementations receive the LLM-produced
// output payload and perform the side effect (speech, movement, subprocess).
type Connector interface {
	Connect(ctx context.Context, output any) error
}

// AgentAction is the assembled, ready-to-dispatch handle for one action.
// It is created only by Registry.Load and never mutated afterwards.
type AgentAction struct {
	Name              string
	LLMLabel          string
	ExcludeFromPrompt bool
	Interface         *Interface
	Connector         Connector
}
