package support

import (
	"errors"
	"fmt"

	"github.com/aretw0/ticketflow/pkg/dsl"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// NewWorkflow builds the support graph: the eleven stages chained in Order,
// ending at graph.END.
func NewWorkflow(inv ports.Invoker, opts ...Option) (*graph.Graph, error) {
	stages := NewStages(inv, opts...)

	b := dsl.New()
	for _, name := range Order {
		b.Add(name).
			Describe(descriptions[name]).
			Do(stages.Func(name))
	}
	b.Chain(Order...)

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("support workflow: %w", err)
	}
	return g, nil
}

// Requirements lists every provider call the workflow may make, in stage order.
func Requirements() []Call {
	var calls []Call
	for _, name := range Order {
		calls = append(calls, plan[name]...)
	}
	return calls
}

// StageCalls returns the provider calls made by one stage.
func StageCalls(stage string) []Call {
	return append([]Call(nil), plan[stage]...)
}

// Checker reports whether a provider serves an ability.
type Checker interface {
	Supports(provider, ability string) error
}

// Verify checks that every ability the workflow may call is registered.
// All misses are reported together.
func Verify(c Checker) error {
	var errs []error
	for _, call := range Requirements() {
		if err := c.Supports(call.Provider, call.Ability); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
