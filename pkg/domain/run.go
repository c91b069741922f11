package domain

import (
	"errors"
	"time"
)

// RunStatus is the outcome of a finished run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// RunResult is what the executor hands back for one run. On abort it still
// carries the partial state and the path walked so far.
type RunResult struct {
	RunID      string
	State      *State
	Path       []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunRecord is the persisted summary of a finished run.
type RunRecord struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id,omitempty"`
	Status      RunStatus `json:"status"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	Path        []string  `json:"path"`
	State       *State    `json:"state"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewRunRecord summarizes a run result and the error it ended with, if any.
func NewRunRecord(res *RunResult, runErr error) *RunRecord {
	rec := &RunRecord{
		ID:         res.RunID,
		Status:     RunCompleted,
		Path:       append([]string(nil), res.Path...),
		State:      res.State,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if id, ok := res.State.String(FieldTicketID); ok {
		rec.TicketID = id
	}
	if runErr != nil {
		rec.Status = RunAborted
		rec.Error = runErr.Error()
		var aborted *ExecutionAbortedError
		if errors.As(runErr, &aborted) {
			rec.FailedStage = aborted.Stage
		}
	}
	return rec
}
