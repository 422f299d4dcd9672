package models

// Role identifies who authored a conversation message.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Message is a single entry in the conversation history
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Goal is the caller-defined task for autonomous (YOLO) mode.
// Immutable for the lifetime of a conversation.
type Goal struct {
	Description string `json:"description"`
	MaxTurns    int    `json:"max_turns"`
}

// GoalState is the per-conversation goal bookkeeping, advanced exactly
// once per turn. The caller persists it between turns.
type GoalState struct {
	Active      bool    `json:"active"`
	CurrentTurn int     `json:"current_turn"`
	Progress    float64 `json:"progress"`
}

// SafetyConstraints configure the escalation checks for a conversation.
type SafetyConstraints struct {
	MinConfidence      float64  `json:"min_confidence"`
	EscalationKeywords []string `json:"escalation_keywords"`
	StopIfConfused     bool     `json:"stop_if_confused"`
}

// SafetyDecision is the outcome of a safety evaluation.
type SafetyDecision string

const (
	DecisionSafe     SafetyDecision = "safe"
	DecisionEscalate SafetyDecision = "escalate"
)

// SafetyVerdict is produced per evaluation call and never persisted.
type SafetyVerdict struct {
	Decision SafetyDecision `json:"decision"`
	Reason   string         `json:"reason"`
	Triggers []string       `json:"triggers"`
}

// ExtractedEntities holds structured tokens pulled from the conversation,
// in message order.
type ExtractedEntities struct {
	OrderNumbers []string `json:"order_numbers"`
	Emails       []string `json:"emails"`
}

// PolicyAction is the per-turn decision of the autonomous policy.
type PolicyAction string

const (
	ActionRespond      PolicyAction = "respond"
	ActionEscalate     PolicyAction = "escalate"
	ActionGoalComplete PolicyAction = "goal_complete"
)

// UserPreferences tune suggestion-mode generation.
type UserPreferences struct {
	Tone     string `json:"tone,omitempty"`
	Length   string `json:"length,omitempty"`
	Language string `json:"language,omitempty"`
}

// SuggestRequest asks for a response suggestion (human-in-the-loop mode).
type SuggestRequest struct {
	Platform            string           `json:"platform"`
	ConversationContext []Message        `json:"conversation_context"`
	UserPreferences     *UserPreferences `json:"user_preferences,omitempty"`
}

// Suggestion is a single candidate reply for a human agent to review.
type Suggestion struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// AutonomousRequest carries everything the policy needs for one turn.
type AutonomousRequest struct {
	SessionID           string            `json:"session_id"`
	Goal                Goal              `json:"goal"`
	GoalState           GoalState         `json:"goal_state"`
	SafetyConstraints   SafetyConstraints `json:"safety_constraints"`
	ConversationContext []Message         `json:"conversation_context"`
}

// PolicyOutcome is the per-turn result returned to the caller.
type PolicyOutcome struct {
	Action       PolicyAction `json:"action"`
	ResponseText *string      `json:"response_text"`
	UpdatedState GoalState    `json:"updated_state"`
	Reasoning    string       `json:"reasoning"`
	Confidence   float64      `json:"confidence"`
}

// ConversationMode distinguishes the two response-generation modes.
type ConversationMode string

const (
	ModeSuggestion ConversationMode = "suggestion"
	ModeAutonomous ConversationMode = "autonomous"
)

// ConversationOutcome records how a conversation ended.
type ConversationOutcome string

const (
	OutcomeCompleted   ConversationOutcome = "completed"
	OutcomeEscalated   ConversationOutcome = "escalated"
	OutcomeInterrupted ConversationOutcome = "interrupted"
)

// ConversationLog is the audit record saved after a conversation concludes
// (primarily for autonomous mode).
type ConversationLog struct {
	LogID               string              `json:"log_id"`
	SessionID           string              `json:"session_id"`
	Mode                ConversationMode    `json:"mode"`
	GoalDescription     string              `json:"goal_description,omitempty"`
	ConversationContext []Message           `json:"conversation_context"`
	ActionsTaken        []string            `json:"actions_taken"`
	Outcome             ConversationOutcome `json:"outcome"`
	Timestamp           int64               `json:"timestamp"`
}

// Feedback is a 1-5 rating on a suggestion, keyed by the original request.
type Feedback struct {
	FeedbackID     string `json:"feedback_id"`
	RequestID      string `json:"request_id"`
	Rating         int    `json:"rating"`
	FeedbackText   string `json:"feedback_text,omitempty"`
	SuggestionUsed bool   `json:"suggestion_used"`
	Modified       bool   `json:"modified"`
	Timestamp      int64  `json:"timestamp"`
}
