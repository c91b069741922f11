package support

// Stage names, in execution order.
const (
	StageIntake     = "INTAKE"
	StageUnderstand = "UNDERSTAND"
	StagePrepare    = "PREPARE"
	StageAsk        = "ASK"
	StageWait       = "WAIT"
	StageRetrieve   = "RETRIEVE"
	StageDecide     = "DECIDE"
	StageUpdate     = "UPDATE"
	StageCreate     = "CREATE"
	StageDo         = "DO"
	StageComplete   = "COMPLETE"
)

// Order is the fixed stage sequence of the support workflow.
var Order = []string{
	StageIntake,
	StageUnderstand,
	StagePrepare,
	StageAsk,
	StageWait,
	StageRetrieve,
	StageDecide,
	StageUpdate,
	StageCreate,
	StageDo,
	StageComplete,
}

// Provider names.
const (
	ProviderCommon = "common"
	ProviderAtlas  = "atlas"
)

// Abilities served by the common provider.
const (
	AbilityParseRequestText     = "parse_request_text"
	AbilityNormalizeFields      = "normalize_fields"
	AbilityAddFlagsCalculations = "add_flags_calculations"
	AbilitySolutionEvaluation   = "solution_evaluation"
	AbilityResponseGeneration   = "response_generation"
)

// Abilities served by the atlas provider.
const (
	AbilityExtractEntities      = "extract_entities"
	AbilityEnrichRecords        = "enrich_records"
	AbilityClarifyQuestion      = "clarify_question"
	AbilityExtractAnswer        = "extract_answer"
	AbilityKnowledgeBaseSearch  = "knowledge_base_search"
	AbilityEscalationDecision   = "escalation_decision"
	AbilityUpdateTicket         = "update_ticket"
	AbilityCloseTicket          = "close_ticket"
	AbilityExecuteAPICalls      = "execute_api_calls"
	AbilityTriggerNotifications = "trigger_notifications"
)

// EscalationThreshold is the solution score below which DECIDE asks for an
// escalation decision.
const EscalationThreshold = 90
