package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Submitter queues action commands for dispatch.
type Submitter interface {
	SubmitAction(action string, payload json.RawMessage, source string) error
}

// triggerRunner fires a single trigger on its schedule.
type triggerRunner struct {
	trigger   *Trigger
	submitter Submitter
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func newTriggerRunner(trigger *Trigger, submitter Submitter, log *slog.Logger) *triggerRunner {
	if log == nil {
		log = slog.Default()
	}
	return &triggerRunner{
		trigger:   trigger,
		submitter: submitter,
		logger:    log.With("trigger", trigger.ID),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins firing the trigger on schedule.
func (r *triggerRunner) Start(ctx context.Context) {
	defer close(r.doneCh)

	if !r.trigger.Enabled {
		r.logger.Debug("trigger disabled, not starting")
		return
	}

	nextRun, err := r.trigger.NextRun(time.Now())
	if err != nil {
		r.logger.Error("failed to calculate next run", "error", err)
		return
	}
	r.trigger.State.NextRunAt = nextRun

	r.logger.Info("trigger runner started", "next_run", nextRun.Format(time.RFC3339))

	var tickerDuration time.Duration
	switch r.trigger.Schedule.Kind {
	case "interval":
		tickerDuration = time.Duration(r.trigger.Schedule.IntervalMs) * time.Millisecond
	case "cron", "at":
		// Check every minute for cron/at schedules.
		tickerDuration = 1 * time.Minute
	}

	ticker := time.NewTicker(tickerDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("trigger runner stopped (context cancelled)")
			return
		case <-r.stopCh:
			r.logger.Info("trigger runner stopped")
			return
		case now := <-ticker.C:
			// Interval schedules fire on every tick. Cron and at schedules
			// fire once their computed next run has passed.
			shouldRun := r.trigger.Schedule.Kind == "interval" ||
				!now.Before(r.trigger.State.NextRunAt)

			if shouldRun {
				r.fire()

				nextRun, err := r.trigger.NextRun(time.Now())
				if err != nil {
					r.logger.Error("failed to calculate next run", "error", err)
				} else {
					r.trigger.State.NextRunAt = nextRun
					r.logger.Debug("next run scheduled", "next_run", nextRun.Format(time.RFC3339))
				}
			}
		}
	}
}

// Stop stops the trigger runner.
func (r *triggerRunner) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// fire submits the trigger's action command once.
func (r *triggerRunner) fire() {
	r.trigger.State.LastRunAt = time.Now()
	r.trigger.State.RunCount++

	err := r.submit()
	if err != nil {
		r.trigger.State.ErrorCount++
		r.trigger.State.LastError = err.Error()
		r.logger.Error("trigger failed",
			"error", err,
			"run_count", r.trigger.State.RunCount,
			"error_count", r.trigger.State.ErrorCount)
		return
	}

	r.trigger.State.LastError = ""
	r.logger.Info("trigger fired",
		"action", r.trigger.Action,
		"run_count", r.trigger.State.RunCount)
}

func (r *triggerRunner) submit() error {
	if r.submitter == nil {
		return fmt.Errorf("submitter not set")
	}

	var payload json.RawMessage
	if r.trigger.Payload != nil {
		data, err := json.Marshal(r.trigger.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		payload = data
	}

	return r.submitter.SubmitAction(r.trigger.Action, payload, "scheduler:"+r.trigger.ID)
}
