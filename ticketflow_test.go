package ticketflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/observability"
	"github.com/aretw0/ticketflow/pkg/providers/common"
	"github.com/aretw0/ticketflow/pkg/registry"
	"github.com/aretw0/ticketflow/pkg/support"
)

func alice(t *testing.T) *domain.State {
	t.Helper()
	s, err := support.SampleTicket().State()
	require.NoError(t, err)
	return s
}

func TestEngine_Execute(t *testing.T) {
	engine, err := ticketflow.New()
	require.NoError(t, err)

	final, err := engine.Execute(context.Background(), alice(t))
	require.NoError(t, err)

	score, _ := final.Int(domain.FieldSolutionScore)
	assert.Equal(t, 95, score)
	notified, _ := final.Bool(domain.FieldNotificationSent)
	assert.True(t, notified)
}

func TestEngine_RunReportsPath(t *testing.T) {
	engine, err := ticketflow.New()
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), "run-42", alice(t))
	require.NoError(t, err)
	assert.Equal(t, "run-42", res.RunID)
	assert.Equal(t, support.Order, res.Path)
}

func TestEngine_ExecuteReturnsNilStateOnAbort(t *testing.T) {
	engine, err := ticketflow.New()
	require.NoError(t, err)

	final, err := engine.Execute(context.Background(), domain.NewState())
	assert.Nil(t, final)

	var aborted *domain.ExecutionAbortedError
	require.True(t, errors.As(err, &aborted))
	assert.Equal(t, support.StageIntake, aborted.Stage)
	assert.NotNil(t, aborted.State)
}

func TestEngine_RejectsIncompleteRegistry(t *testing.T) {
	_, err := ticketflow.New(ticketflow.WithProviders(common.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestEngine_RejectsDuplicateProviders(t *testing.T) {
	_, err := ticketflow.New(ticketflow.WithProviders(common.New(), common.New()))
	assert.ErrorIs(t, err, registry.ErrDuplicateProvider)
}

func TestEngine_HooksSeeStagesAndAbilities(t *testing.T) {
	rec := observability.NewRecorder()
	engine, err := ticketflow.New(ticketflow.WithLifecycleHooks(rec.Hooks()))
	require.NoError(t, err)

	_, err = engine.Execute(context.Background(), alice(t))
	require.NoError(t, err)

	assert.Equal(t, support.Order, rec.Stages())
	assert.Len(t, rec.Abilities(), len(support.Requirements())-1, "escalation_decision is skipped at score 95")
}

func TestEngine_CompletionObserver(t *testing.T) {
	var got *domain.State
	engine, err := ticketflow.New(ticketflow.WithCompletionObserver(func(ctx context.Context, s *domain.State) {
		got = s
	}))
	require.NoError(t, err)

	final, err := engine.Execute(context.Background(), alice(t))
	require.NoError(t, err)
	assert.Same(t, final, got)
}

func TestEngine_Inspect(t *testing.T) {
	engine, err := ticketflow.New()
	require.NoError(t, err)

	nodes := engine.Inspect()
	require.Len(t, nodes, len(support.Order))
	assert.True(t, nodes[0].Entry)
	assert.Equal(t, support.StageIntake, nodes[0].Name)
	assert.Equal(t, "__end__", nodes[len(nodes)-1].Edges[0].To)
	assert.Equal(t, []string{"atlas", "common"}, engine.Registry().Names())
}

func TestEngine_ConcurrentRuns(t *testing.T) {
	engine, err := ticketflow.New()
	require.NoError(t, err)

	const runs = 20
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		ticket := alice(t)
		go func() {
			_, err := engine.Execute(context.Background(), ticket)
			errs <- err
		}()
	}
	for i := 0; i < runs; i++ {
		assert.NoError(t, <-errs)
	}
}
