// Package common provides the general-purpose support abilities: request
// parsing, field normalization, flagging, solution scoring and response drafting.
package common

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/registry"
	"github.com/aretw0/ticketflow/pkg/support"
)

// DefaultSolutionScore is what solution_evaluation reports unless overridden.
const DefaultSolutionScore = 95

type config struct {
	score  int
	logger *slog.Logger
}

// Option configures the provider.
type Option func(*config)

// WithSolutionScore fixes the score reported by solution_evaluation.
func WithSolutionScore(score int) Option {
	return func(c *config) {
		c.score = score
	}
}

// WithLogger sets the logger that traces each invocation.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New returns the "common" provider.
func New(opts ...Option) *registry.Table {
	cfg := &config{score: DefaultSolutionScore}
	for _, opt := range opts {
		opt(cfg)
	}

	return registry.NewTable(support.ProviderCommon, map[string]registry.Handler{
		support.AbilityParseRequestText: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldStructuredQuery, map[string]any{"intent": "password reset"})
			return nil
		},
		support.AbilityNormalizeFields: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldNormalized, true)
			return nil
		},
		support.AbilityAddFlagsCalculations: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldSLARisk, "low")
			return nil
		},
		support.AbilitySolutionEvaluation: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldSolutionScore, cfg.score)
			return nil
		},
		support.AbilityResponseGeneration: func(ctx context.Context, s *domain.State) error {
			if err := s.Require(domain.FieldCustomerName); err != nil {
				return err
			}
			name, _ := s.String(domain.FieldCustomerName)
			s.Set(domain.FieldDraftResponse, fmt.Sprintf("Dear %s, we have resolved your issue.", name))
			return nil
		},
	}, registry.WithLogger(cfg.logger))
}
