package runtime

import (
	"context"
	"time"

	"github.com/aretw0/ticketflow/pkg/domain"
)

func (e *Executor) base(ctx context.Context, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		RunID:     domain.RunIDFromContext(ctx),
	}
}

func (e *Executor) emitStageEnter(ctx context.Context, stage string) {
	if e.hooks.OnStageEnter == nil {
		return
	}
	e.hooks.OnStageEnter(ctx, &domain.StageEvent{
		EventBase: e.base(ctx, domain.EventStageEnter),
		Stage:     stage,
	})
}

func (e *Executor) emitStageLeave(ctx context.Context, stage string, changed []string, took time.Duration, err error) {
	if e.hooks.OnStageLeave == nil {
		return
	}
	ev := &domain.StageEvent{
		EventBase: e.base(ctx, domain.EventStageLeave),
		Stage:     stage,
		Changed:   changed,
		Duration:  took,
	}
	if err != nil {
		ev.IsError = true
		ev.Error = err.Error()
	}
	e.hooks.OnStageLeave(ctx, ev)
}

func (e *Executor) emitRunComplete(ctx context.Context, res *domain.RunResult) {
	if e.hooks.OnRunComplete == nil {
		return
	}
	e.hooks.OnRunComplete(ctx, &domain.RunEvent{
		EventBase: e.base(ctx, domain.EventRunComplete),
		Path:      append([]string(nil), res.Path...),
		State:     res.State,
	})
}

func (e *Executor) emitRunAborted(ctx context.Context, res *domain.RunResult, stage string, err error) {
	if e.hooks.OnRunAborted == nil {
		return
	}
	e.hooks.OnRunAborted(ctx, &domain.RunEvent{
		EventBase:   e.base(ctx, domain.EventRunAborted),
		Path:        append([]string(nil), res.Path...),
		State:       res.State,
		FailedStage: stage,
		Error:       err.Error(),
	})
}
