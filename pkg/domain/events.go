package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter    EventType = "stage_enter"
	EventStageLeave    EventType = "stage_leave"
	EventAbilityCall   EventType = "ability_call"
	EventAbilityReturn EventType = "ability_return"
	EventRunComplete   EventType = "run_complete"
	EventRunAborted    EventType = "run_aborted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StageEvent represents entry into or exit from a stage.
type StageEvent struct {
	EventBase
	Stage string `json:"stage"`

	// Leave only.
	Changed  []string      `json:"changed,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// AbilityEvent represents a single provider invocation made by a stage.
type AbilityEvent struct {
	EventBase
	Stage    string        `json:"stage"`
	Provider string        `json:"provider"`
	Ability  string        `json:"ability"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RunEvent is emitted once per run, after the terminal marker or on abort.
type RunEvent struct {
	EventBase
	Path        []string `json:"path"`
	State       *State   `json:"state,omitempty"`
	FailedStage string   `json:"failed_stage,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every callback is optional.
type LifecycleHooks struct {
	OnStageEnter    func(context.Context, *StageEvent)
	OnStageLeave    func(context.Context, *StageEvent)
	OnAbilityCall   func(context.Context, *AbilityEvent)
	OnAbilityReturn func(context.Context, *AbilityEvent)
	OnRunComplete   func(context.Context, *RunEvent)
	OnRunAborted    func(context.Context, *RunEvent)
}
