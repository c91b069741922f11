package observability

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/ticketflow/pkg/domain"
)

const tracerName = "github.com/aretw0/ticketflow"

// NewStdoutProvider builds a tracer provider that writes spans as JSON to w
// (os.Stdout when nil). Callers own Shutdown.
func NewStdoutProvider(serviceName, serviceVersion string, w io.Writer) (*sdktrace.TracerProvider, error) {
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return NewProvider(serviceName, serviceVersion, exporter)
}

// NewProvider builds a tracer provider around any span exporter.
func NewProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}

// Tracing maps a run to a span tree: one root span per run, one child span
// per stage, and one span event per ability call or return.
//
// Hooks cannot hand a context back to the executor, so open spans are kept in
// a map keyed by run ID.
type Tracing struct {
	tracer trace.Tracer
	runs   sync.Map // run ID -> *runSpans
}

type runSpans struct {
	ctx   context.Context
	root  trace.Span
	stage trace.Span
}

// NewTracing uses tp, or the global provider when tp is nil.
func NewTracing(tp trace.TracerProvider) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{tracer: tp.Tracer(tracerName)}
}

func (t *Tracing) run(ctx context.Context, runID string) *runSpans {
	if v, ok := t.runs.Load(runID); ok {
		return v.(*runSpans)
	}
	rctx, root := t.tracer.Start(ctx, "ticketflow.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
	rs := &runSpans{ctx: rctx, root: root}
	actual, _ := t.runs.LoadOrStore(runID, rs)
	return actual.(*runSpans)
}

// Hooks returns lifecycle hooks that emit spans.
func (t *Tracing) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			rs := t.run(ctx, e.RunID)
			_, rs.stage = t.tracer.Start(rs.ctx, "stage "+e.Stage,
				trace.WithAttributes(attribute.String("stage", e.Stage)),
			)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			rs := t.run(ctx, e.RunID)
			if rs.stage == nil {
				return
			}
			rs.stage.SetAttributes(attribute.StringSlice("fields.changed", e.Changed))
			if e.IsError {
				rs.stage.SetStatus(codes.Error, e.Error)
			} else {
				rs.stage.SetStatus(codes.Ok, "")
			}
			rs.stage.End()
			rs.stage = nil
		},
		OnAbilityCall: func(ctx context.Context, e *domain.AbilityEvent) {
			t.abilityEvent(ctx, e, "ability.call")
		},
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) {
			t.abilityEvent(ctx, e, "ability.return")
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			t.finish(ctx, e, nil)
		},
		OnRunAborted: func(ctx context.Context, e *domain.RunEvent) {
			t.finish(ctx, e, &e.Error)
		},
	}
}

func (t *Tracing) abilityEvent(ctx context.Context, e *domain.AbilityEvent, name string) {
	v, ok := t.runs.Load(e.RunID)
	if !ok {
		return
	}
	rs := v.(*runSpans)
	span := rs.stage
	if span == nil {
		span = rs.root
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider", e.Provider),
		attribute.String("ability", e.Ability),
	}
	if e.Type == domain.EventAbilityReturn {
		attrs = append(attrs, attribute.Int64("duration_ns", e.Duration.Nanoseconds()))
		if e.IsError {
			attrs = append(attrs, attribute.String("error", e.Error))
		}
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (t *Tracing) finish(ctx context.Context, e *domain.RunEvent, errMsg *string) {
	rs := t.run(ctx, e.RunID)
	t.runs.Delete(e.RunID)

	if rs.stage != nil {
		rs.stage.End()
	}
	rs.root.SetAttributes(attribute.StringSlice("run.path", e.Path))
	if errMsg != nil {
		rs.root.SetAttributes(attribute.String("run.failed_stage", e.FailedStage))
		rs.root.SetStatus(codes.Error, *errMsg)
	} else {
		rs.root.SetStatus(codes.Ok, "")
	}
	rs.root.End()
}
