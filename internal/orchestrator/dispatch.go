package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/actonlabs/acton/internal/history"
)

// Dispatch executes a batch of commands and returns results in the original
// order. A single command takes the fast path with no goroutine overhead;
// larger batches fan out with bounded concurrency.
func (o *Orchestrator) Dispatch(ctx context.Context, cmds []Command) []Result {
	results := make([]Result, len(cmds))

	if len(cmds) == 1 {
		results[0] = o.invoke(ctx, cmds[0])
		return results
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, cmd := range cmds {
		i, cmd := i, cmd // per-iteration copies; go directive predates Go 1.22 loop semantics
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				results[i] = Result{
					CommandID: cmd.ID,
					Action:    cmd.Action,
					Status:    "error",
					Error:     gCtx.Err().Error(),
				}
				return nil
			default:
			}
			// Unique index per goroutine, no mutex needed.
			results[i] = o.invoke(gCtx, cmd)
			return nil // failures live in the result, never abort the batch
		})
	}

	_ = g.Wait()
	return results
}

// invoke resolves one command to its loaded action and runs the connector.
func (o *Orchestrator) invoke(ctx context.Context, cmd Command) Result {
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	start := time.Now()

	result := Result{CommandID: cmd.ID, Action: cmd.Action, Status: "success"}

	o.mu.RLock()
	la, ok := o.byLabel[cmd.Action]
	o.mu.RUnlock()

	if !ok {
		result.Status = "error"
		result.Error = "unknown action: " + cmd.Action
	} else if payload, err := payloadMap(cmd.Payload); err != nil {
		result.Status = "error"
		result.Error = err.Error()
	} else {
		invokeCtx, cancel := context.WithTimeout(ctx, o.timeout)
		if err := la.action.Connector.Connect(invokeCtx, payload); err != nil {
			result.Status = "error"
			result.Error = err.Error()
		}
		cancel()
	}

	result.ElapsedMs = time.Since(start).Milliseconds()

	if result.Status == "error" {
		o.logger.Warn("action failed",
			"action", cmd.Action,
			"command", cmd.ID,
			"error", result.Error,
		)
	} else {
		o.logger.Debug("action dispatched",
			"action", cmd.Action,
			"command", cmd.ID,
			"elapsed_ms", result.ElapsedMs,
		)
	}

	o.record(cmd, result, la, start)
	return result
}

// record appends the invocation to the history store when one is configured.
func (o *Orchestrator) record(cmd Command, result Result, la *loadedAction, start time.Time) {
	if o.hist == nil {
		return
	}

	inv := history.Invocation{
		ID:        cmd.ID,
		Action:    cmd.Action,
		Payload:   compactPayload(cmd.Payload),
		Status:    result.Status,
		Error:     result.Error,
		Source:    cmd.Source,
		StartedAt: start,
		ElapsedMs: result.ElapsedMs,
	}
	if la != nil {
		inv.Type = la.cfg.Type
	}
	// The dispatch context may already be cancelled once we get here.
	if err := o.hist.Record(context.Background(), inv); err != nil {
		o.logger.Warn("failed to record invocation", "command", cmd.ID, "error", err)
	}
}
