// Package atlas provides the ticketing-system abilities: entity extraction,
// record enrichment, customer dialogue, knowledge base, escalation, ticket
// updates and outbound actions.
package atlas

import (
	"context"
	"log/slog"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/registry"
	"github.com/aretw0/ticketflow/pkg/support"
)

// New returns the "atlas" provider.
func New(logger *slog.Logger) *registry.Table {
	return registry.NewTable(support.ProviderAtlas, map[string]registry.Handler{
		support.AbilityExtractEntities: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldEntities, map[string]any{"product": "Email Service"})
			return nil
		},
		support.AbilityEnrichRecords: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldTicketHistory, []string{"T123", "T124"})
			return nil
		},
		support.AbilityClarifyQuestion: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldClarificationRequested, true)
			return nil
		},
		support.AbilityExtractAnswer: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldClarificationAnswer, "User provided missing account ID.")
			return nil
		},
		support.AbilityKnowledgeBaseSearch: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldKBResult, "Password reset instructions found.")
			return nil
		},
		support.AbilityEscalationDecision: escalationDecision,
		support.AbilityUpdateTicket: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldTicketStatus, "In Progress")
			return nil
		},
		support.AbilityCloseTicket: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldTicketStatus, "Closed")
			return nil
		},
		support.AbilityExecuteAPICalls: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldAPIExecuted, true)
			return nil
		},
		support.AbilityTriggerNotifications: func(ctx context.Context, s *domain.State) error {
			s.Set(domain.FieldNotificationSent, true)
			return nil
		},
	}, registry.WithLogger(logger))
}

// escalationDecision escalates when the solution score is under the threshold.
// An absent score counts as 0.
func escalationDecision(ctx context.Context, s *domain.State) error {
	score, _ := s.Int(domain.FieldSolutionScore)
	s.Set(domain.FieldEscalated, score < support.EscalationThreshold)
	return nil
}
