package builtin

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/actonlabs/acton/internal/actions"
)

func speakPlugin(logger *slog.Logger, out io.Writer) *actions.Plugin {
	return &actions.Plugin{
		Type: "speak",
		Interface: &actions.Interface{
			Doc: "Speak a sentence aloud to the user.",
			Input: []actions.Field{
				{Name: "sentence", Kind: actions.FieldPrimitive, TypeName: "string"},
			},
			Output: []actions.Field{
				{Name: "sentence", Kind: actions.FieldPrimitive, TypeName: "string"},
			},
		},
		NewConnector: func(cfg actions.ConnectorConfig) (actions.Connector, error) {
			return &speakConnector{
				out:    out,
				logger: logger.With("action", "speak"),
			}, nil
		},
	}
}

// speakConnector writes the sentence to the configured output.
type speakConnector struct {
	out    io.Writer
	logger *slog.Logger
}

func (c *speakConnector) Connect(ctx context.Context, output any) error {
	sentence, err := payloadString(output, "sentence")
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(c.out, sentence); err != nil {
		return fmt.Errorf("builtin: speak: %w", err)
	}
	c.logger.Debug("spoke", "sentence", sentence)
	return nil
}
