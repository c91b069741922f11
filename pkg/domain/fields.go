package domain

// Identity fields, seeded by the caller before the run starts.
const (
	FieldCustomerName = "customer_name"
	FieldEmail        = "email"
	FieldQuery        = "query"
	FieldPriority     = "priority"
	FieldTicketID     = "ticket_id"
)

// Derived fields, populated progressively by stages.
const (
	FieldStructuredQuery        = "structured_query"
	FieldEntities               = "entities"
	FieldNormalized             = "normalized"
	FieldTicketHistory          = "ticket_history"
	FieldSLARisk                = "sla_risk"
	FieldClarificationRequested = "clarification_requested"
	FieldClarificationAnswer    = "clarification_answer"
	FieldKBResult               = "kb_result"
	FieldSolutionScore          = "solution_score"
	FieldEscalated              = "escalated"
	FieldTicketStatus           = "ticket_status"
	FieldDraftResponse          = "draft_response"
	FieldAPIExecuted            = "api_executed"
	FieldNotificationSent       = "notification_sent"
)
