package domain

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	stageKey
)

// WithRunID annotates the context with the identifier of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run identifier, or "" outside a run.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithStage annotates the context with the stage currently executing.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the executing stage, or "" outside a stage.
func StageFromContext(ctx context.Context) string {
	stage, _ := ctx.Value(stageKey).(string)
	return stage
}
