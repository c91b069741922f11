package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// Metrics exposes Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	StageVisits    *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	AbilityCalls   *prometheus.CounterVec
	AbilityLatency *prometheus.HistogramVec
	RunsCompleted  prometheus.Counter
	RunsAborted    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsWith(reg)
	if err != nil {
		return nil, err
	}
	m.gatherer = reg
	return m, nil
}

// NewMetricsWith registers the collectors on reg.
func NewMetricsWith(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketflow_stage_visits_total",
				Help: "Total number of stage executions",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticketflow_stage_duration_seconds",
				Help:    "Duration of stage executions",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"stage"},
		),
		AbilityCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketflow_ability_calls_total",
				Help: "Total number of provider ability invocations",
			},
			[]string{"provider", "ability", "outcome"},
		),
		AbilityLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticketflow_ability_duration_seconds",
				Help:    "Duration of provider ability invocations",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"provider", "ability"},
		),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketflow_runs_completed_total",
			Help: "Total number of runs that reached the terminal marker",
		}),
		RunsAborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketflow_runs_aborted_total",
				Help: "Total number of aborted runs by failing stage",
			},
			[]string{"stage"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.StageVisits, m.StageDuration, m.AbilityCalls, m.AbilityLatency, m.RunsCompleted, m.RunsAborted,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			m.StageVisits.WithLabelValues(e.Stage).Inc()
			m.StageDuration.WithLabelValues(e.Stage).Observe(e.Duration.Seconds())
		},
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.AbilityCalls.WithLabelValues(e.Provider, e.Ability, outcome).Inc()
			m.AbilityLatency.WithLabelValues(e.Provider, e.Ability).Observe(e.Duration.Seconds())
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsCompleted.Inc()
		},
		OnRunAborted: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsAborted.WithLabelValues(e.FailedStage).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
