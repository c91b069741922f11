package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow/internal/runtime"
	"github.com/aretw0/ticketflow/pkg/domain"
)

type invokerFunc func(ctx context.Context, provider, ability string, state *domain.State) (*domain.State, error)

func (f invokerFunc) Invoke(ctx context.Context, provider, ability string, state *domain.State) (*domain.State, error) {
	return f(ctx, provider, ability, state)
}

func TestInvoker_EmitsCallAndReturn(t *testing.T) {
	var events []*domain.AbilityEvent
	hooks := domain.LifecycleHooks{
		OnAbilityCall:   func(ctx context.Context, e *domain.AbilityEvent) { events = append(events, e) },
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) { events = append(events, e) },
	}
	next := invokerFunc(func(ctx context.Context, provider, ability string, s *domain.State) (*domain.State, error) {
		s.Set("touched", true)
		return s, nil
	})

	ctx := domain.WithStage(domain.WithRunID(context.Background(), "run-9"), "UNDERSTAND")
	inv := runtime.NewInvoker(next, hooks)

	out, err := inv.Invoke(ctx, "atlas", "extract_entities", domain.NewState())
	require.NoError(t, err)
	touched, _ := out.Bool("touched")
	assert.True(t, touched)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventAbilityCall, events[0].Type)
	assert.Equal(t, domain.EventAbilityReturn, events[1].Type)
	for _, e := range events {
		assert.Equal(t, "run-9", e.RunID)
		assert.Equal(t, "UNDERSTAND", e.Stage)
		assert.Equal(t, "atlas", e.Provider)
		assert.Equal(t, "extract_entities", e.Ability)
	}
	assert.False(t, events[1].IsError)
}

func TestInvoker_ReportsErrors(t *testing.T) {
	var ret *domain.AbilityEvent
	hooks := domain.LifecycleHooks{
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) { ret = e },
	}
	want := &domain.UnknownAbilityError{Provider: "atlas", Ability: "teleport"}
	next := invokerFunc(func(ctx context.Context, provider, ability string, s *domain.State) (*domain.State, error) {
		return s, want
	})

	_, err := runtime.NewInvoker(next, hooks).Invoke(context.Background(), "atlas", "teleport", domain.NewState())
	assert.True(t, errors.Is(err, domain.ErrUnknownAbility))
	require.NotNil(t, ret)
	assert.True(t, ret.IsError)
	assert.Equal(t, want.Error(), ret.Error)
}
