package ticketflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/ticketflow/internal/logging"
	"github.com/aretw0/ticketflow/internal/runtime"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/aretw0/ticketflow/pkg/ports"
	"github.com/aretw0/ticketflow/pkg/providers/atlas"
	"github.com/aretw0/ticketflow/pkg/providers/common"
	"github.com/aretw0/ticketflow/pkg/registry"
	"github.com/aretw0/ticketflow/pkg/support"
)

// WorkflowFunc builds a workflow graph whose stages call providers through inv.
type WorkflowFunc func(inv ports.Invoker, opts ...support.Option) (*graph.Graph, error)

// Engine is the high-level entry point for the ticketflow library.
// It wires the provider registry, the workflow graph and the executor, and is
// safe for concurrent runs once New returns.
type Engine struct {
	registry  *registry.Registry
	providers []ports.Provider
	workflow  WorkflowFunc
	graph     *graph.Graph
	executor  *runtime.Executor
	hooks     domain.LifecycleHooks
	observer  func(context.Context, *domain.State)
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProviders replaces the default common and atlas providers.
func WithProviders(providers ...ports.Provider) Option {
	return func(e *Engine) {
		e.providers = providers
	}
}

// WithRegistry injects a prebuilt provider registry. It takes precedence over WithProviders.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithWorkflow replaces the support workflow.
func WithWorkflow(fn WorkflowFunc) Option {
	return func(e *Engine) {
		e.workflow = fn
	}
}

// WithCompletionObserver receives the final record when the COMPLETE stage runs.
func WithCompletionObserver(fn func(context.Context, *domain.State)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// New initializes an Engine. Without options it runs the eleven-stage support
// workflow on the common and atlas providers.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.registry == nil {
		if eng.providers == nil {
			eng.providers = []ports.Provider{
				common.New(common.WithLogger(eng.logger)),
				atlas.New(eng.logger),
			}
		}
		reg, err := registry.New(eng.providers...)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider registry: %w", err)
		}
		eng.registry = reg
	}

	workflow := eng.workflow
	if workflow == nil {
		// The built-in workflow knows every call it makes, so wiring gaps fail here.
		if err := support.Verify(eng.registry); err != nil {
			return nil, fmt.Errorf("provider registry does not cover the support workflow: %w", err)
		}
		workflow = support.NewWorkflow
	}

	inv := runtime.NewInvoker(eng.registry, eng.hooks)
	g, err := workflow(inv,
		support.WithLogger(eng.logger),
		support.WithObserver(eng.observer),
	)
	if err != nil {
		return nil, err
	}
	eng.graph = g

	eng.executor = runtime.NewExecutor(g,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	return eng, nil
}

// Execute runs the workflow on initial and returns the final record.
//
// On failure it returns a nil record and a *domain.ExecutionAbortedError whose
// State field holds the partial record.
func (e *Engine) Execute(ctx context.Context, initial *domain.State) (*domain.State, error) {
	res, err := e.Run(ctx, uuid.NewString(), initial)
	if err != nil {
		return nil, err
	}
	return res.State, nil
}

// Run executes one run under the given ID and returns the full result,
// including the visited path. It implements ports.WorkflowRunner.
func (e *Engine) Run(ctx context.Context, runID string, initial *domain.State) (*domain.RunResult, error) {
	return e.executor.Run(ctx, runID, initial)
}

// Inspect returns the workflow structure for visualization.
func (e *Engine) Inspect() []graph.NodeInfo {
	return e.graph.Describe()
}

// Graph returns the compiled workflow.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Registry returns the provider registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}
