// Package scheduler fires action commands on interval, cron, or daily
// schedules.
package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger fires one action command on a schedule.
type Trigger struct {
	ID       string         `json:"id"`
	Action   string         `json:"action"` // llm_label of the target action
	Payload  map[string]any `json:"payload,omitempty"`
	Schedule ScheduleConfig `json:"schedule"`
	Enabled  bool           `json:"enabled"`
	State    TriggerState   `json:"state"`
}

// ScheduleConfig defines when a trigger fires.
type ScheduleConfig struct {
	Kind       string `json:"kind"` // "interval", "cron", "at"
	IntervalMs int64  `json:"intervalMs,omitempty"`
	Expr       string `json:"expr,omitempty"` // cron expression
	Time       string `json:"time,omitempty"` // "HH:MM" for daily
	Timezone   string `json:"timezone,omitempty"`
}

// TriggerState tracks trigger execution state.
type TriggerState struct {
	LastRunAt  time.Time `json:"lastRunAt,omitempty"`
	NextRunAt  time.Time `json:"nextRunAt,omitempty"`
	RunCount   int64     `json:"runCount"`
	ErrorCount int64     `json:"errorCount"`
	LastError  string    `json:"lastError,omitempty"`
}

// Validate checks the trigger configuration.
func (t *Trigger) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trigger ID required")
	}
	if t.Action == "" {
		return fmt.Errorf("trigger action required")
	}

	switch t.Schedule.Kind {
	case "interval":
		if t.Schedule.IntervalMs <= 0 {
			return fmt.Errorf("intervalMs must be positive")
		}
	case "cron":
		if t.Schedule.Expr == "" {
			return fmt.Errorf("cron expression required")
		}
		if _, err := cron.ParseStandard(t.Schedule.Expr); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
	case "at":
		if t.Schedule.Time == "" {
			return fmt.Errorf("time required for 'at' schedule")
		}
		if _, err := time.Parse("15:04", t.Schedule.Time); err != nil {
			return fmt.Errorf("invalid time format (use HH:MM): %w", err)
		}
	default:
		return fmt.Errorf("unknown schedule kind: %s (use interval, cron, or at)", t.Schedule.Kind)
	}

	return nil
}

// NextRun calculates the next fire time after from.
func (t *Trigger) NextRun(from time.Time) (time.Time, error) {
	switch t.Schedule.Kind {
	case "interval":
		interval := time.Duration(t.Schedule.IntervalMs) * time.Millisecond
		return from.Add(interval), nil

	case "cron":
		schedule, err := cron.ParseStandard(t.Schedule.Expr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron: %w", err)
		}
		return schedule.Next(from), nil

	case "at":
		at, err := time.Parse("15:04", t.Schedule.Time)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse time: %w", err)
		}

		loc := time.Local
		if t.Schedule.Timezone != "" {
			loc, err = time.LoadLocation(t.Schedule.Timezone)
			if err != nil {
				return time.Time{}, fmt.Errorf("load timezone: %w", err)
			}
		}

		next := time.Date(from.Year(), from.Month(), from.Day(),
			at.Hour(), at.Minute(), 0, 0, loc)

		// If the time has passed today, fire tomorrow.
		if next.Before(from) || next.Equal(from) {
			next = next.Add(24 * time.Hour)
		}

		return next, nil

	default:
		return time.Time{}, fmt.Errorf("unknown schedule kind: %s", t.Schedule.Kind)
	}
}

// Clone creates a deep copy of the trigger.
func (t *Trigger) Clone() *Trigger {
	data, _ := json.Marshal(t)
	var clone Trigger
	json.Unmarshal(data, &clone)
	return &clone
}
