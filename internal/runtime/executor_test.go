package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow/internal/runtime"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/dsl"
	"github.com/aretw0/ticketflow/pkg/graph"
)

// set returns a stage body that writes key=value.
func set(key string, value any) graph.StageFunc {
	return func(ctx context.Context, s *domain.State) (*domain.State, error) {
		s.Set(key, value)
		return s, nil
	}
}

func flag(s *domain.State, key string) bool {
	v, _ := s.Bool(key)
	return v
}

func linear(t *testing.T, names ...string) *graph.Graph {
	t.Helper()
	b := dsl.New()
	for _, n := range names {
		b.Add(n).Do(set("visited_"+n, true))
	}
	b.Chain(names...)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestExecutor_RunsStagesInOrder(t *testing.T) {
	g := linear(t, "a", "b", "c")
	exec := runtime.NewExecutor(g)

	res, err := exec.Run(context.Background(), "run-1", domain.NewState())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, res.Path)
	assert.Equal(t, "run-1", res.RunID)
	for _, n := range []string{"a", "b", "c"} {
		assert.True(t, flag(res.State, "visited_"+n), n)
	}
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestExecutor_NilInitialState(t *testing.T) {
	exec := runtime.NewExecutor(linear(t, "only"))

	res, err := exec.Run(context.Background(), "r", nil)
	require.NoError(t, err)
	assert.True(t, flag(res.State, "visited_only"))
}

func TestExecutor_GuardedEdgeWinsOverFallback(t *testing.T) {
	build := func() *graph.Graph {
		b := dsl.New()
		b.Add("decide").
			Do(func(ctx context.Context, s *domain.State) (*domain.State, error) { return s, nil }).
			Branch("flagged", func(s *domain.State) bool { return flag(s, "flag") }, "special").
			Go("normal")
		b.Add("special").Do(set("route", "special")).Terminal()
		b.Add("normal").Do(set("route", "normal")).Terminal()
		g, err := b.Build()
		require.NoError(t, err)
		return g
	}

	exec := runtime.NewExecutor(build())

	flagged := domain.NewState()
	flagged.Set("flag", true)
	res, err := exec.Run(context.Background(), "r1", flagged)
	require.NoError(t, err)
	assert.Equal(t, []string{"decide", "special"}, res.Path)

	res, err = exec.Run(context.Background(), "r2", domain.NewState())
	require.NoError(t, err)
	assert.Equal(t, []string{"decide", "normal"}, res.Path)
}

func TestExecutor_StageErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	ranAfter := false

	b := dsl.New()
	b.Add("first").Do(set("first", "done")).Go("broken")
	b.Add("broken").Do(func(ctx context.Context, s *domain.State) (*domain.State, error) {
		s.Set("partial", 1)
		return s, boom
	}).Go("after")
	b.Add("after").Do(func(ctx context.Context, s *domain.State) (*domain.State, error) {
		ranAfter = true
		return s, nil
	}).Terminal()
	g, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewExecutor(g).Run(context.Background(), "r", domain.NewState())
	require.Error(t, err)
	assert.False(t, ranAfter, "no stage may run after a failure")

	var aborted *domain.ExecutionAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, "broken", aborted.Stage)
	assert.ErrorIs(t, err, domain.ErrExecutionAborted)
	assert.ErrorIs(t, err, boom)
	first, _ := aborted.State.String("first")
	assert.Equal(t, "done", first)
	assert.True(t, aborted.State.Has("partial"))

	require.NotNil(t, res)
	assert.Equal(t, []string{"first", "broken"}, res.Path)
}

func TestExecutor_RevisitAborts(t *testing.T) {
	b := dsl.New()
	b.Add("start").Do(set("start", true)).Go("loop")
	b.Add("loop").Do(set("loop", true)).Go("back")
	b.Add("back").Do(set("back", true)).
		Branch("again", func(s *domain.State) bool { return true }, "loop").
		Terminal()
	g, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewExecutor(g).Run(context.Background(), "r", domain.NewState())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStageRevisited)

	var aborted *domain.ExecutionAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, "loop", aborted.Stage)
}

func TestExecutor_NoTransitionAborts(t *testing.T) {
	b := dsl.New()
	b.Add("stuck").
		Do(set("stuck", true)).
		Branch("never", func(s *domain.State) bool { return false }, graph.END)
	g, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewExecutor(g).Run(context.Background(), "r", domain.NewState())
	assert.ErrorIs(t, err, domain.ErrNoTransition)
}

func TestExecutor_FieldRemovalAborts(t *testing.T) {
	b := dsl.New()
	b.Add("drop").Do(func(ctx context.Context, s *domain.State) (*domain.State, error) {
		// A fresh record without the caller's fields.
		return domain.NewState(), nil
	}).Terminal()
	g, err := b.Build()
	require.NoError(t, err)

	initial := domain.NewState()
	initial.Set("query", "help")

	_, err = runtime.NewExecutor(g).Run(context.Background(), "r", initial)
	assert.ErrorIs(t, err, domain.ErrFieldRemoved)
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	b := dsl.New()
	b.Add("a").Do(func(ctx context.Context, s *domain.State) (*domain.State, error) {
		cancel()
		return s, nil
	}).Go("b")
	b.Add("b").Do(set("b", true)).Terminal()
	g, err := b.Build()
	require.NoError(t, err)

	res, err := runtime.NewExecutor(g).Run(ctx, "r", domain.NewState())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, res.Path)
	assert.False(t, res.State.Has("b"))

	var aborted *domain.ExecutionAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, "b", aborted.Stage)
}

func TestExecutor_LifecycleHooks(t *testing.T) {
	var entered, left []string
	var changed [][]string
	var completed *domain.RunEvent

	hooks := domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			entered = append(entered, e.Stage)
			assert.Equal(t, "run-h", e.RunID)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			left = append(left, e.Stage)
			changed = append(changed, e.Changed)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			completed = e
		},
		OnRunAborted: func(ctx context.Context, e *domain.RunEvent) {
			t.Errorf("unexpected abort at %s", e.FailedStage)
		},
	}

	exec := runtime.NewExecutor(linear(t, "a", "b"), runtime.WithLifecycleHooks(hooks))
	_, err := exec.Run(context.Background(), "run-h", domain.NewState())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, entered)
	assert.Equal(t, []string{"a", "b"}, left)
	assert.Equal(t, [][]string{{"visited_a"}, {"visited_b"}}, changed)
	require.NotNil(t, completed)
	assert.Equal(t, domain.EventRunComplete, completed.Type)
	assert.Equal(t, []string{"a", "b"}, completed.Path)
}

func TestExecutor_AbortHook(t *testing.T) {
	var aborted *domain.RunEvent
	hooks := domain.LifecycleHooks{
		OnRunAborted: func(ctx context.Context, e *domain.RunEvent) { aborted = e },
	}

	b := dsl.New()
	b.Add("fail").Do(func(ctx context.Context, s *domain.State) (*domain.State, error) {
		return s, errors.New("nope")
	}).Terminal()
	g, err := b.Build()
	require.NoError(t, err)

	_, err = runtime.NewExecutor(g, runtime.WithLifecycleHooks(hooks)).Run(context.Background(), "r", domain.NewState())
	require.Error(t, err)
	require.NotNil(t, aborted)
	assert.Equal(t, "fail", aborted.FailedStage)
	assert.Contains(t, aborted.Error, "execution aborted at stage 'fail'")
}

func TestExecutor_ConcurrentRunsDoNotShareState(t *testing.T) {
	exec := runtime.NewExecutor(linear(t, "a", "b", "c"))

	const runs = 16
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		go func() {
			_, err := exec.Run(context.Background(), "r", domain.NewState())
			errs <- err
		}()
	}
	for i := 0; i < runs; i++ {
		assert.NoError(t, <-errs)
	}
}
