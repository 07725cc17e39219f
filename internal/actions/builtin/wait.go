package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/actonlabs/acton/internal/actions"
)

// maxWait caps how long a single wait command may pause dispatch.
const maxWait = 60 * time.Second

func waitPlugin(logger *slog.Logger) *actions.Plugin {
	return &actions.Plugin{
		Type: "wait",
		Interface: &actions.Interface{
			Doc: "Pause for a number of seconds before the next action.",
			Input: []actions.Field{
				{Name: "seconds", Kind: actions.FieldPrimitive, TypeName: "number"},
			},
		},
		NewConnector: func(cfg actions.ConnectorConfig) (actions.Connector, error) {
			return &waitConnector{logger: logger.With("action", "wait")}, nil
		},
	}
}

type waitConnector struct {
	logger *slog.Logger
}

func (c *waitConnector) Connect(ctx context.Context, output any) error {
	m, ok := output.(map[string]any)
	if !ok {
		return fmt.Errorf("builtin: payload is %T, want a mapping", output)
	}
	seconds, ok := m["seconds"].(float64)
	if !ok || seconds < 0 {
		return fmt.Errorf("builtin: wait needs a non-negative seconds field")
	}

	d := time.Duration(seconds * float64(time.Second))
	if d > maxWait {
		d = maxWait
	}
	c.logger.Debug("waiting", "duration", d)

	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
