package support

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// Call addresses one ability of one provider.
type Call struct {
	Provider string `json:"provider"`
	Ability  string `json:"ability"`
}

func (c Call) String() string {
	return c.Provider + "." + c.Ability
}

// plan lists the provider calls each stage makes, in order. DECIDE's second
// call is conditional and handled in Decide.
var plan = map[string][]Call{
	StageIntake: nil,
	StageUnderstand: {
		{ProviderCommon, AbilityParseRequestText},
		{ProviderAtlas, AbilityExtractEntities},
	},
	StagePrepare: {
		{ProviderCommon, AbilityNormalizeFields},
		{ProviderAtlas, AbilityEnrichRecords},
		{ProviderCommon, AbilityAddFlagsCalculations},
	},
	StageAsk:      {{ProviderAtlas, AbilityClarifyQuestion}},
	StageWait:     {{ProviderAtlas, AbilityExtractAnswer}},
	StageRetrieve: {{ProviderAtlas, AbilityKnowledgeBaseSearch}},
	StageDecide: {
		{ProviderCommon, AbilitySolutionEvaluation},
		{ProviderAtlas, AbilityEscalationDecision},
	},
	StageUpdate: {
		{ProviderAtlas, AbilityUpdateTicket},
		{ProviderAtlas, AbilityCloseTicket},
	},
	StageCreate: {{ProviderCommon, AbilityResponseGeneration}},
	StageDo: {
		{ProviderAtlas, AbilityExecuteAPICalls},
		{ProviderAtlas, AbilityTriggerNotifications},
	},
	StageComplete: nil,
}

var descriptions = map[string]string{
	StageIntake:     "Accept the ticket and check the identity fields",
	StageUnderstand: "Parse the request and extract entities",
	StagePrepare:    "Normalize, enrich and flag the ticket",
	StageAsk:        "Ask the customer a clarifying question",
	StageWait:       "Extract the customer's answer",
	StageRetrieve:   "Search the knowledge base",
	StageDecide:     "Score the solution and decide on escalation",
	StageUpdate:     "Update and close the ticket",
	StageCreate:     "Draft the customer response",
	StageDo:         "Execute API calls and notify",
	StageComplete:   "Emit the final payload",
}

// IdentityFields must be present before the run starts.
var IdentityFields = []string{
	domain.FieldCustomerName,
	domain.FieldEmail,
	domain.FieldQuery,
	domain.FieldTicketID,
}

// Stages implements the eleven support stages on top of a provider invoker.
type Stages struct {
	inv     ports.Invoker
	logger  *slog.Logger
	observe func(context.Context, *domain.State)
}

// Option configures Stages.
type Option func(*Stages)

// WithLogger sets the logger used by COMPLETE.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stages) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback that receives the final record from COMPLETE.
func WithObserver(fn func(context.Context, *domain.State)) Option {
	return func(s *Stages) {
		s.observe = fn
	}
}

// NewStages binds the stages to an invoker.
func NewStages(inv ports.Invoker, opts ...Option) *Stages {
	s := &Stages{
		inv:    inv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Func returns the body of the named stage, or nil if there is no such stage.
func (s *Stages) Func(name string) graph.StageFunc {
	switch name {
	case StageIntake:
		return s.Intake
	case StageDecide:
		return s.Decide
	case StageComplete:
		return s.Complete
	}
	calls, ok := plan[name]
	if !ok {
		return nil
	}
	return func(ctx context.Context, state *domain.State) (*domain.State, error) {
		return s.call(ctx, state, calls...)
	}
}

func (s *Stages) call(ctx context.Context, state *domain.State, calls ...Call) (*domain.State, error) {
	for _, c := range calls {
		next, err := s.inv.Invoke(ctx, c.Provider, c.Ability, state)
		if next != nil {
			state = next
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// Intake checks that the caller seeded the identity fields.
func (s *Stages) Intake(ctx context.Context, state *domain.State) (*domain.State, error) {
	return state, state.Require(IdentityFields...)
}

// Decide scores the proposed solution. Only a score under EscalationThreshold
// consults the escalation ability; otherwise the ticket is not escalated.
func (s *Stages) Decide(ctx context.Context, state *domain.State) (*domain.State, error) {
	evaluate, escalate := plan[StageDecide][0], plan[StageDecide][1]

	state, err := s.call(ctx, state, evaluate)
	if err != nil {
		return state, err
	}
	score, ok := state.Int(domain.FieldSolutionScore)
	if !ok {
		return state, &domain.MissingRequiredFieldError{Fields: []string{domain.FieldSolutionScore}}
	}
	if score < EscalationThreshold {
		return s.call(ctx, state, escalate)
	}
	state.Set(domain.FieldEscalated, false)
	return state, nil
}

// Complete hands the final record to the observer.
func (s *Stages) Complete(ctx context.Context, state *domain.State) (*domain.State, error) {
	ticketID, _ := state.String(domain.FieldTicketID)
	status, _ := state.String(domain.FieldTicketStatus)
	s.logger.Info("ticket resolved",
		"run_id", domain.RunIDFromContext(ctx),
		"ticket_id", ticketID,
		"status", status,
		"fields", state.Len(),
	)
	if s.observe != nil {
		s.observe(ctx, state)
	}
	return state, nil
}
