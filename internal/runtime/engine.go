package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
)

// Executor walks a workflow graph from its entry to END, one stage at a time.
// It holds no per-run state, so one Executor serves concurrent runs.
type Executor struct {
	graph  *graph.Graph
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ExecutorOption {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates an executor for a validated graph.
func NewExecutor(g *graph.Graph, opts ...ExecutorOption) *Executor {
	e := &Executor{
		graph:  g,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph this executor walks.
func (e *Executor) Graph() *graph.Graph {
	return e.graph
}

// Run executes the workflow on the given record.
//
// Stages run strictly in sequence and each at most once. Cancellation is checked
// between stages. On failure Run returns the partial result together with a
// *domain.ExecutionAbortedError naming the failing stage.
func (e *Executor) Run(ctx context.Context, runID string, state *domain.State) (*domain.RunResult, error) {
	if state == nil {
		state = domain.NewState()
	}
	res := &domain.RunResult{
		RunID:     runID,
		State:     state,
		StartedAt: e.now(),
	}
	ctx = domain.WithRunID(ctx, runID)
	logger := e.logger.With("run_id", runID)
	logger.Debug("run started", "entry", e.graph.Entry())

	visited := make(map[string]bool, e.graph.Len())
	current := e.graph.Entry()

	for current != graph.END {
		if err := ctx.Err(); err != nil {
			return e.abort(ctx, res, current, err)
		}
		if visited[current] {
			return e.abort(ctx, res, current, domain.ErrStageRevisited)
		}
		visited[current] = true

		node, ok := e.graph.Node(current)
		if !ok {
			return e.abort(ctx, res, current, fmt.Errorf("%w: node '%s' not found", graph.ErrInvalidGraph, current))
		}

		res.Path = append(res.Path, current)
		next, err := e.step(ctx, node, res)
		if err != nil {
			return e.abort(ctx, res, current, err)
		}
		current = next
	}

	res.FinishedAt = e.now()
	logger.Debug("run completed", "stages", len(res.Path))
	e.emitRunComplete(ctx, res)
	return res, nil
}

// step runs a single stage and resolves where to go next.
func (e *Executor) step(ctx context.Context, node *graph.Node, res *domain.RunResult) (string, error) {
	stageCtx := domain.WithStage(ctx, node.Name)
	before := res.State.Snapshot()

	e.emitStageEnter(stageCtx, node.Name)
	start := e.now()

	out, err := node.Run(stageCtx, res.State)
	if out != nil {
		res.State = out
	}

	diff := domain.Diff(before, res.State)
	if err == nil && len(diff.Removed) > 0 {
		err = fmt.Errorf("%w: %v", domain.ErrFieldRemoved, diff.Removed)
	}
	e.emitStageLeave(stageCtx, node.Name, diff.Changed(), e.now().Sub(start), err)
	if err != nil {
		return "", err
	}

	next, err := e.resolveNext(node, res.State)
	if err != nil {
		return "", err
	}
	e.logger.Debug("transition", "run_id", res.RunID, "from", node.Name, "to", next)
	return next, nil
}

// abort finalizes a failed run, keeping everything accumulated so far.
func (e *Executor) abort(ctx context.Context, res *domain.RunResult, stage string, cause error) (*domain.RunResult, error) {
	res.FinishedAt = e.now()
	err := &domain.ExecutionAbortedError{
		Stage: stage,
		State: res.State,
		Err:   cause,
	}
	e.logger.Warn("run aborted", "run_id", res.RunID, "stage", stage, "err", cause)
	e.emitRunAborted(ctx, res, stage, err)
	return res, err
}
