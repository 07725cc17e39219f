// Package plugins discovers external action plugins on disk and registers
// them as subprocess-backed actions. A plugin is a directory containing an
// ACTION.md manifest (YAML frontmatter) and an action.toml with the
// interface schema and connector command.
package plugins

import "time"

// Manifest represents parsed ACTION.md frontmatter metadata.
type Manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	License     string `yaml:"license"`
}

// actionDef mirrors the action.toml layout.
type actionDef struct {
	Interface interfaceDef `toml:"interface"`
	Connector connectorDef `toml:"connector"`
}

type interfaceDef struct {
	Doc   string              `toml:"doc"`
	Input map[string]fieldDef `toml:"input"`
}

type fieldDef struct {
	Kind   string   `toml:"kind"` // "enum" or "primitive"
	Type   string   `toml:"type,omitempty"`
	Values []string `toml:"values,omitempty"`
}

type connectorDef struct {
	Command     string        `toml:"command"`
	Args        []string      `toml:"args"`
	Env         []string      `toml:"env"`
	TimeoutSecs int           `toml:"timeout_secs"`
	Timeout     time.Duration `toml:"-"`
}
