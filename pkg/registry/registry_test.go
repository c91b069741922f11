package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTable(name string, abilities ...string) *registry.Table {
	handlers := make(map[string]registry.Handler)
	for _, a := range abilities {
		ability := a
		handlers[ability] = func(ctx context.Context, s *domain.State) error {
			s.Set(name+"."+ability, true)
			return nil
		}
	}
	return registry.NewTable(name, handlers)
}

func TestRegistry_InvokeByName(t *testing.T) {
	reg, err := registry.New(echoTable("common", "a"), echoTable("atlas", "b"))
	require.NoError(t, err)

	state := domain.NewState()
	out, err := reg.Invoke(context.Background(), "atlas", "b", state)
	require.NoError(t, err)
	assert.Same(t, state, out, "providers update the record in place")
	assert.True(t, out.Has("atlas.b"))

	assert.Equal(t, []string{"atlas", "common"}, reg.Names())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg, err := registry.New(echoTable("common", "a"))
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "atlas", "a", domain.NewState())
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)

	var unknown *domain.UnknownProviderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "atlas", unknown.Provider)
}

func TestRegistry_UnknownAbilityFailsFast(t *testing.T) {
	reg, err := registry.New(echoTable("common", "a"))
	require.NoError(t, err)

	state := domain.NewState()
	_, err = reg.Invoke(context.Background(), "common", "b", state)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownAbility)
	assert.Zero(t, state.Len(), "a miss must not touch the record")
}

func TestRegistry_DuplicateName(t *testing.T) {
	_, err := registry.New(echoTable("common", "a"), echoTable("common", "b"))
	assert.ErrorIs(t, err, registry.ErrDuplicateProvider)
}

func TestRegistry_Supports(t *testing.T) {
	reg, err := registry.New(echoTable("common", "a", "b"))
	require.NoError(t, err)

	assert.NoError(t, reg.Supports("common", "b"))
	assert.ErrorIs(t, reg.Supports("common", "z"), domain.ErrUnknownAbility)
	assert.ErrorIs(t, reg.Supports("atlas", "a"), domain.ErrUnknownProvider)
}

func TestTable_HandlerErrorIsAnnotated(t *testing.T) {
	boom := errors.New("boom")
	table := registry.NewTable("common", map[string]registry.Handler{
		"explode": func(ctx context.Context, s *domain.State) error {
			s.Set("partial", true)
			return boom
		},
	})

	out, err := table.Invoke(context.Background(), "explode", domain.NewState())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "common.explode")
	assert.True(t, out.Has("partial"), "partial writes are kept")
}

func TestTable_Abilities(t *testing.T) {
	table := echoTable("atlas", "z", "a", "m")
	assert.Equal(t, []string{"a", "m", "z"}, table.Abilities())
	assert.Equal(t, "atlas", table.Name())
}
