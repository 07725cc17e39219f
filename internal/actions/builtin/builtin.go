// Package builtin ships the in-process action plugins that come with the
// runtime: speech, movement, and waiting. External plugins are handled by
// the plugins package.
package builtin

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/actonlabs/acton/internal/actions"
)

// Options tunes the builtin connectors.
type Options struct {
	// Out receives speak output. Defaults to os.Stdout.
	Out io.Writer
}

// Register adds all builtin action plugins to the registry.
func Register(reg *actions.Registry, logger *slog.Logger, opts Options) error {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	plugins := []*actions.Plugin{
		speakPlugin(logger, opts.Out),
		movePlugin(logger),
		waitPlugin(logger),
	}
	for _, p := range plugins {
		if err := reg.Register(p); err != nil {
			return fmt.Errorf("builtin: register %s: %w", p.Type, err)
		}
	}
	return nil
}

// payloadString extracts a string field from an action payload mapping.
func payloadString(output any, key string) (string, error) {
	m, ok := output.(map[string]any)
	if !ok {
		return "", fmt.Errorf("builtin: payload is %T, want a mapping", output)
	}
	v, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("builtin: payload missing string field %q", key)
	}
	return v, nil
}
