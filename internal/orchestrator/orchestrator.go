// Package orchestrator owns the loaded action set and dispatches incoming
// action commands to their connectors.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/actonlabs/acton/internal/actions"
	"github.com/actonlabs/acton/internal/history"
)

const (
	inboxSize      = 256
	defaultTimeout = 30 * time.Second
	maxParallel    = 5
)

// Command is one action invocation request, typically produced by an LLM,
// the gateway, or the scheduler.
type Command struct {
	ID      string          `json:"id,omitempty"`
	Action  string          `json:"action"` // llm_label of the target action
	Payload json.RawMessage `json:"payload,omitempty"`
	Source  string          `json:"source,omitempty"`
}

// Result is the outcome of dispatching one command.
type Result struct {
	CommandID string `json:"commandId"`
	Action    string `json:"action"`
	Status    string `json:"status"` // "success" or "error"
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// ActionInfo is a summary of a loaded action for listings.
type ActionInfo struct {
	Name              string `json:"name"`
	LLMLabel          string `json:"llm_label"`
	Type              string `json:"type"`
	ExcludeFromPrompt bool   `json:"exclude_from_prompt"`
}

// Orchestrator loads the configured actions and runs the dispatch loop.
type Orchestrator struct {
	registry *actions.Registry
	hist     *history.Store // optional, nil disables recording
	logger   *slog.Logger

	mu       sync.RWMutex
	byLabel  map[string]*loadedAction
	cfgs     []actions.Config
	preamble string

	inbox   chan Command
	cancel  context.CancelFunc
	done    chan struct{}
	timeout time.Duration
}

type loadedAction struct {
	action *actions.AgentAction
	cfg    actions.Config
}

// New creates an orchestrator. hist may be nil to disable invocation
// recording.
func New(registry *actions.Registry, hist *history.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		hist:     hist,
		logger:   logger.With("component", "orchestrator"),
		byLabel:  make(map[string]*loadedAction),
		inbox:    make(chan Command, inboxSize),
		timeout:  defaultTimeout,
	}
}

// SetPreamble sets the text prefixed to the assembled prompt.
func (o *Orchestrator) SetPreamble(preamble string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.preamble = preamble
}

// LoadActions loads every configured action through the registry. Labels
// must be unique: dispatch resolves commands by llm_label.
func (o *Orchestrator) LoadActions(cfgs []actions.Config) error {
	loaded, err := o.registry.LoadAll(cfgs)
	if err != nil {
		return fmt.Errorf("orchestrator: load actions: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for i, action := range loaded {
		if _, exists := o.byLabel[action.LLMLabel]; exists {
			return fmt.Errorf("orchestrator: duplicate llm_label %q", action.LLMLabel)
		}
		o.byLabel[action.LLMLabel] = &loadedAction{action: action, cfg: cfgs[i]}
		o.cfgs = append(o.cfgs, cfgs[i])
	}
	o.logger.Info("actions ready", "count", len(o.byLabel))
	return nil
}

// Actions lists the loaded actions.
func (o *Orchestrator) Actions() []ActionInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	infos := make([]ActionInfo, 0, len(o.cfgs))
	for _, cfg := range o.cfgs {
		infos = append(infos, ActionInfo{
			Name:              cfg.Name,
			LLMLabel:          cfg.LLMLabel,
			Type:              cfg.Type,
			ExcludeFromPrompt: cfg.ExcludeFromPrompt,
		})
	}
	return infos
}

// Prompt assembles the LLM-facing prompt section for the loaded action set.
func (o *Orchestrator) Prompt() string {
	o.mu.RLock()
	preamble := o.preamble
	cfgs := o.cfgs
	o.mu.RUnlock()

	body := o.registry.DescribeAll(cfgs)
	if preamble == "" {
		return body
	}
	if body == "" {
		return preamble
	}
	return preamble + "\n\n" + body
}

// Submit queues a command for dispatch without blocking.
func (o *Orchestrator) Submit(cmd Command) error {
	if cmd.Action == "" {
		return fmt.Errorf("orchestrator: command missing action")
	}
	select {
	case o.inbox <- cmd:
		return nil
	default:
		return fmt.Errorf("orchestrator: inbox full, dropping command for %q", cmd.Action)
	}
}

// SubmitAction queues a command by its parts. It exists so callers like the
// scheduler can submit without building a Command.
func (o *Orchestrator) SubmitAction(action string, payload json.RawMessage, source string) error {
	return o.Submit(Command{Action: action, Payload: payload, Source: source})
}

// Start launches the dispatch loop.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.done != nil {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator: already started")
	}
	ctx, o.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	o.done = done
	o.mu.Unlock()

	o.logger.Info("orchestrator started")
	go o.run(ctx, done)
	return nil
}

// Stop cancels the dispatch loop and waits for it to drain.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	o.logger.Info("orchestrator stopped")
}

// run drains the inbox, dispatching commands in batches so independent
// actions execute in parallel.
func (o *Orchestrator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-o.inbox:
			batch := []Command{cmd}
		drain:
			for len(batch) < maxParallel {
				select {
				case next := <-o.inbox:
					batch = append(batch, next)
				default:
					break drain
				}
			}
			o.Dispatch(ctx, batch)
		}
	}
}

// payloadMap decodes a command payload into the mapping connectors expect.
func payloadMap(payload json.RawMessage) (map[string]any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("orchestrator: decode payload: %w", err)
	}
	return m, nil
}

// compactPayload renders a payload for the invocation log.
func compactPayload(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var b bytes.Buffer
	if err := json.Compact(&b, []byte(payload)); err != nil {
		return string(payload)
	}
	return b.String()
}
