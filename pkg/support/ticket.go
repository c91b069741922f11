package support

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// Ticket is the caller-supplied part of the record.
// It uses "mapstructure" tags so it decodes from JSON, YAML or flag maps alike.
type Ticket struct {
	CustomerName string `json:"customer_name" yaml:"customer_name" mapstructure:"customer_name"`
	Email        string `json:"email" yaml:"email" mapstructure:"email"`
	Query        string `json:"query" yaml:"query" mapstructure:"query"`
	Priority     string `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
	TicketID     string `json:"ticket_id" yaml:"ticket_id" mapstructure:"ticket_id"`
}

// SampleTicket is the demonstration ticket used when no input is given.
func SampleTicket() Ticket {
	return Ticket{
		CustomerName: "Alice",
		Email:        "alice@example.com",
		Query:        "I cannot log in to my email account",
		Priority:     "high",
		TicketID:     "T125",
	}
}

// State seeds a fresh record with the ticket's non-empty fields.
func (t Ticket) State() (*domain.State, error) {
	var m map[string]any
	if err := mapstructure.Decode(t, &m); err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	s := domain.NewState()
	for k, v := range m {
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		s.Set(k, v)
	}
	return s, nil
}

// Merge overlays the non-empty fields of other onto t.
func (t Ticket) Merge(other Ticket) Ticket {
	if other.CustomerName != "" {
		t.CustomerName = other.CustomerName
	}
	if other.Email != "" {
		t.Email = other.Email
	}
	if other.Query != "" {
		t.Query = other.Query
	}
	if other.Priority != "" {
		t.Priority = other.Priority
	}
	if other.TicketID != "" {
		t.TicketID = other.TicketID
	}
	return t
}

// DecodeTicket reads a ticket from a generic map (decoded JSON, YAML or tool
// arguments). Unknown keys are ignored; scalars are weakly converted to strings.
func DecodeTicket(raw map[string]any) (Ticket, error) {
	var t Ticket
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &t,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return t, err
	}
	if err := dec.Decode(raw); err != nil {
		return t, fmt.Errorf("decode ticket: %w", err)
	}
	return t, nil
}

// Resolution is the typed view of a finished record.
type Resolution struct {
	Ticket        `mapstructure:",squash"`
	Intent        string   `json:"intent,omitempty" mapstructure:"-"`
	Product       string   `json:"product,omitempty" mapstructure:"-"`
	TicketHistory []string `json:"ticket_history,omitempty" mapstructure:"ticket_history"`
	SLARisk       string   `json:"sla_risk,omitempty" mapstructure:"sla_risk"`
	KBResult      string   `json:"kb_result,omitempty" mapstructure:"kb_result"`
	SolutionScore *int     `json:"solution_score,omitempty" mapstructure:"solution_score"`
	Escalated     *bool    `json:"escalated,omitempty" mapstructure:"escalated"`
	TicketStatus  string   `json:"ticket_status,omitempty" mapstructure:"ticket_status"`
	DraftResponse string   `json:"draft_response,omitempty" mapstructure:"draft_response"`
	APIExecuted   bool     `json:"api_executed" mapstructure:"api_executed"`
	Notified      bool     `json:"notification_sent" mapstructure:"notification_sent"`
}

// ResolutionFromState decodes a record into a Resolution. Absent fields stay at
// their zero value; the pointer fields distinguish absent from zero.
func ResolutionFromState(s *domain.State) (Resolution, error) {
	var r Resolution
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &r,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return r, err
	}
	if err := dec.Decode(s.Fields()); err != nil {
		return r, fmt.Errorf("decode resolution: %w", err)
	}
	if v, ok := s.Lookup(domain.FieldStructuredQuery + ".intent"); ok {
		r.Intent = fmt.Sprint(v)
	}
	if v, ok := s.Lookup(domain.FieldEntities + ".product"); ok {
		r.Product = fmt.Sprint(v)
	}
	return r, nil
}
