package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Scheduler manages all configured triggers.
type Scheduler struct {
	triggers  map[string]*Trigger
	runners   map[string]*triggerRunner
	submitter Submitter
	logger    *slog.Logger
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// Config holds scheduler configuration.
type Config struct {
	Enabled  bool       `json:"enabled"`
	Triggers []*Trigger `json:"triggers,omitempty"`
}

// New creates a scheduler that submits fired commands through submitter.
func New(submitter Submitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		triggers:  make(map[string]*Trigger),
		runners:   make(map[string]*triggerRunner),
		submitter: submitter,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start launches runners for all enabled triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("starting scheduler", "triggers", len(s.triggers))

	for id, trigger := range s.triggers {
		if !trigger.Enabled {
			s.logger.Debug("skipping disabled trigger", "trigger", id)
			continue
		}

		runner := newTriggerRunner(trigger, s.submitter, s.logger)
		s.runners[id] = runner
		go runner.Start(s.ctx)
	}

	s.logger.Info("scheduler started", "active_triggers", len(s.runners))
	return nil
}

// Stop stops all trigger runners.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("stopping scheduler")

	if s.cancel != nil {
		s.cancel()
	}

	for id, runner := range s.runners {
		runner.Stop()
		s.logger.Debug("stopped trigger runner", "trigger", id)
	}

	s.runners = make(map[string]*triggerRunner)
	s.logger.Info("scheduler stopped")
}

// Add registers a new trigger.
func (s *Scheduler) Add(trigger *Trigger) error {
	if err := trigger.Validate(); err != nil {
		return fmt.Errorf("invalid trigger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.triggers[trigger.ID]; exists {
		return fmt.Errorf("trigger with ID %s already exists", trigger.ID)
	}

	s.triggers[trigger.ID] = trigger

	if s.ctx != nil && trigger.Enabled {
		runner := newTriggerRunner(trigger, s.submitter, s.logger)
		s.runners[trigger.ID] = runner
		go runner.Start(s.ctx)
		s.logger.Info("trigger added and started", "trigger", trigger.ID)
	} else {
		s.logger.Info("trigger added", "trigger", trigger.ID, "enabled", trigger.Enabled)
	}

	return nil
}

// Remove deletes a trigger and stops its runner.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.triggers[id]; !exists {
		return fmt.Errorf("trigger not found: %s", id)
	}

	if runner, exists := s.runners[id]; exists {
		runner.Stop()
		delete(s.runners, id)
	}

	delete(s.triggers, id)
	s.logger.Info("trigger removed", "trigger", id)

	return nil
}

// Get retrieves a trigger by ID.
func (s *Scheduler) Get(id string) (*Trigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trigger, exists := s.triggers[id]
	if !exists {
		return nil, fmt.Errorf("trigger not found: %s", id)
	}

	return trigger.Clone(), nil
}

// List returns all triggers.
func (s *Scheduler) List() []*Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()

	triggers := make([]*Trigger, 0, len(s.triggers))
	for _, trigger := range s.triggers {
		triggers = append(triggers, trigger.Clone())
	}

	return triggers
}

// RunNow fires a trigger immediately, bypassing its schedule.
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	trigger, exists := s.triggers[id]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("trigger not found: %s", id)
	}

	runner := newTriggerRunner(trigger, s.submitter, s.logger)
	runner.fire()
	if trigger.State.LastError != "" {
		return fmt.Errorf("trigger %s: %s", id, trigger.State.LastError)
	}
	return nil
}

// LoadTriggers loads triggers from configuration, skipping invalid ones.
func (s *Scheduler) LoadTriggers(triggers []*Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, trigger := range triggers {
		if err := trigger.Validate(); err != nil {
			s.logger.Warn("invalid trigger in config, skipping",
				"trigger", trigger.ID,
				"error", err)
			continue
		}

		s.triggers[trigger.ID] = trigger
		s.logger.Debug("loaded trigger from config", "trigger", trigger.ID)
	}

	s.logger.Info("triggers loaded", "count", len(s.triggers))
	return nil
}

// Stats returns scheduler counters.
func (s *Scheduler) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalRuns := int64(0)
	totalErrors := int64(0)
	enabled := 0

	for _, trigger := range s.triggers {
		totalRuns += trigger.State.RunCount
		totalErrors += trigger.State.ErrorCount
		if trigger.Enabled {
			enabled++
		}
	}

	return map[string]any{
		"total_triggers":   len(s.triggers),
		"enabled_triggers": enabled,
		"running_triggers": len(s.runners),
		"total_runs":       totalRuns,
		"total_errors":     totalErrors,
	}
}
