package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

// Generation is the output of the reply-generation backend: a candidate
// reply and the backend's own confidence in it.
type Generation struct {
	Text       string
	Confidence float64
}

// Generator produces candidate replies. It is an external capability:
// alternate backends (different models, offline stubs for testing) satisfy
// it without touching the policy.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Policy is the autonomous-mode (YOLO) decision pipeline. Each turn runs
// context processing, reply generation, safety evaluation and goal tracking
// in that fixed order; safety always precedes and can override goal
// completion.
type Policy struct {
	generator Generator
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func NewPolicy(generator Generator, logger *logrus.Logger, metrics *metrics.Metrics) *Policy {
	return &Policy{
		generator: generator,
		logger:    logger,
		metrics:   metrics,
	}
}

// Decide processes one conversation turn and returns the action to take.
// Goal state is advanced exactly once per successful turn; a generation
// failure returns before any mutation so the caller may retry the turn.
func (p *Policy) Decide(ctx context.Context, req models.AutonomousRequest) (models.PolicyOutcome, error) {
	if req.Goal.MaxTurns < 1 {
		return models.PolicyOutcome{}, fmt.Errorf("%w: got %d", ErrInvalidGoal, req.Goal.MaxTurns)
	}
	if req.GoalState.CurrentTurn >= req.Goal.MaxTurns {
		return models.PolicyOutcome{}, fmt.Errorf("%w: turn %d of %d", ErrTurnLimitExceeded, req.GoalState.CurrentTurn, req.Goal.MaxTurns)
	}

	processed, err := ProcessContext(req.ConversationContext)
	if err != nil {
		return models.PolicyOutcome{}, err
	}

	prompt := buildAutonomousPrompt(req, processed)

	genStart := time.Now()
	generation, err := p.generator.Generate(ctx, prompt)
	p.metrics.GenerationDuration.Observe(time.Since(genStart).Seconds())
	if err != nil {
		return models.PolicyOutcome{}, &GenerationError{Err: err}
	}

	verdict := EvaluateSafety(generation.Text, req.SafetyConstraints, generation.Confidence)
	for _, trigger := range verdict.Triggers {
		p.metrics.SafetyTriggers.WithLabelValues(TriggerKind(trigger)).Inc()
	}

	action := models.ActionRespond
	var responseText *string
	if verdict.Decision == models.DecisionEscalate {
		// The candidate reply is discarded and never surfaced to the customer.
		action = models.ActionEscalate
	} else {
		text := generation.Text
		responseText = &text
	}

	updatedState, err := AdvanceGoal(req.Goal, req.GoalState, string(action))
	if err != nil {
		return models.PolicyOutcome{}, err
	}

	// An escalation always wins over a goal-complete determination for the
	// same turn.
	if !updatedState.Active && action != models.ActionEscalate {
		action = models.ActionGoalComplete
	}

	p.metrics.TurnsProcessed.WithLabelValues(string(action)).Inc()
	p.logger.WithFields(logrus.Fields{
		"session_id":   req.SessionID,
		"action":       action,
		"intent":       processed.Intent,
		"current_turn": updatedState.CurrentTurn,
		"progress":     updatedState.Progress,
		"decision":     verdict.Decision,
	}).Info("Autonomous turn decided")

	return models.PolicyOutcome{
		Action:       action,
		ResponseText: responseText,
		UpdatedState: updatedState,
		Reasoning:    "Decision based on goal and safety analysis: " + verdict.Reason,
		Confidence:   generation.Confidence,
	}, nil
}

func buildAutonomousPrompt(req models.AutonomousRequest, processed ProcessedContext) string {
	var transcript strings.Builder
	for i, msg := range processed.Messages {
		if i > 0 {
			transcript.WriteString("\n")
		}
		transcript.WriteString(strings.ToUpper(string(msg.Role)))
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
	}

	return fmt.Sprintf(`Autonomous support task:

Goal: %s (Max turns: %d)
Current Turn: %d/%d
Progress: %.1f%%
Intent: %s

Safety Constraints:
- Min confidence: %v
- Escalation keywords: %s

Conversation:
%s

Decide: respond, escalate, or goal_complete`,
		req.Goal.Description, req.Goal.MaxTurns,
		req.GoalState.CurrentTurn, req.Goal.MaxTurns,
		req.GoalState.Progress*100,
		processed.Intent,
		req.SafetyConstraints.MinConfidence,
		strings.Join(req.SafetyConstraints.EscalationKeywords, ", "),
		transcript.String())
}
