package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/actonlabs/acton/internal/actions"
)

// moveCommands is the closed set of movements the runtime accepts.
var moveCommands = []string{"stand_still", "sit", "walk", "run", "shake_paw"}

// MoveConfig extends the generic action config with a movement speed,
// decoded from the raw "speed" key.
type MoveConfig struct {
	actions.Config
	Speed float64
}

func movePlugin(logger *slog.Logger) *actions.Plugin {
	return &actions.Plugin{
		Type: "move",
		Interface: &actions.Interface{
			Doc: "Move the agent's body.",
			Input: []actions.Field{
				{Name: "action", Kind: actions.FieldEnum, Values: moveCommands},
			},
			Output: []actions.Field{
				{Name: "action", Kind: actions.FieldEnum, Values: moveCommands},
			},
		},
		NewConfig: func(cfg actions.Config) (actions.ConnectorConfig, error) {
			speed := 1.0
			if v, ok := cfg.Raw["speed"].(float64); ok {
				if v <= 0 {
					return nil, fmt.Errorf("builtin: move speed must be positive, got %v", v)
				}
				speed = v
			}
			return MoveConfig{Config: cfg, Speed: speed}, nil
		},
		NewConnector: func(cfg actions.ConnectorConfig) (actions.Connector, error) {
			mc, ok := cfg.(MoveConfig)
			if !ok {
				return nil, fmt.Errorf("builtin: move connector wants MoveConfig, got %T", cfg)
			}
			return &moveConnector{
				speed:  mc.Speed,
				logger: logger.With("action", "move"),
			}, nil
		},
	}
}

// moveConnector logs the requested movement. A hardware deployment would
// swap this for a motion-controller client.
type moveConnector struct {
	speed  float64
	logger *slog.Logger
}

func (c *moveConnector) Connect(ctx context.Context, output any) error {
	command, err := payloadString(output, "action")
	if err != nil {
		return err
	}
	if !slices.Contains(moveCommands, command) {
		return fmt.Errorf("builtin: unknown move command %q", command)
	}

	c.logger.Info("moving", "command", command, "speed", c.speed)
	return nil
}
