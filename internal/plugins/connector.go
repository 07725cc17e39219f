package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/actonlabs/acton/internal/actions"
)

// procConnector executes a plugin's connector command as a subprocess.
// The action payload is delivered JSON-encoded on stdin and in the
// ACTON_PAYLOAD environment variable.
type procConnector struct {
	def    connectorDef
	dir    string
	cfg    actions.Config
	logger *slog.Logger
}

func newProcConnector(def connectorDef, dir string, cfg actions.Config, logger *slog.Logger) *procConnector {
	return &procConnector{
		def:    def,
		dir:    dir,
		cfg:    cfg,
		logger: logger.With("action", cfg.Type),
	}
}

func (c *procConnector) Connect(ctx context.Context, output any) error {
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("plugins: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.def.Timeout)
	defer cancel()

	c.logger.Debug("executing connector",
		"command", c.def.Command,
		"args", c.def.Args,
	)

	cmd := exec.CommandContext(ctx, c.def.Command, c.def.Args...)
	cmd.Dir = c.dir
	cmd.Stdin = bytes.NewReader(payload)

	cmd.Env = os.Environ()
	for _, envDef := range c.def.Env {
		cmd.Env = append(cmd.Env, os.ExpandEnv(envDef))
	}
	cmd.Env = append(cmd.Env,
		"ACTON_PAYLOAD="+string(payload),
		"ACTON_ACTION="+c.cfg.Type,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return fmt.Errorf("plugins: connector %s: %w: %s", c.cfg.Type, err, detail)
		}
		return fmt.Errorf("plugins: connector %s: %w", c.cfg.Type, err)
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		c.logger.Debug("connector output", "stdout", out)
	}
	return nil
}
