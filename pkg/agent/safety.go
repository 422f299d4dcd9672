package agent

import (
	"fmt"
	"strings"

	"support-chat-ai-backend/pkg/models"
)

// Phrases that indicate the model is confused about the request.
var confusionPhrases = []string{
	"i don't understand",
	"i'm not sure",
}

// EvaluateSafety decides whether a candidate reply may be released to the
// customer. It never fails: an unsafe or unclassifiable reply manifests as
// an escalate decision, not an error. All checks run unconditionally so the
// verdict carries every applicable trigger, not just the first.
func EvaluateSafety(candidate string, constraints models.SafetyConstraints, confidence float64) models.SafetyVerdict {
	triggers := []string{}
	lower := strings.ToLower(candidate)

	for _, keyword := range constraints.EscalationKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			triggers = append(triggers, "escalation_keyword:"+keyword)
		}
	}

	if confidence < constraints.MinConfidence {
		triggers = append(triggers, fmt.Sprintf("low_confidence:%.2f", confidence))
	}

	if constraints.StopIfConfused {
		for _, phrase := range confusionPhrases {
			if strings.Contains(lower, phrase) {
				triggers = append(triggers, "confusion_detected")
				break
			}
		}
	}

	if len(triggers) > 0 {
		return models.SafetyVerdict{
			Decision: models.DecisionEscalate,
			Reason:   "Safety violations: " + strings.Join(triggers, ", "),
			Triggers: triggers,
		}
	}

	return models.SafetyVerdict{
		Decision: models.DecisionSafe,
		Reason:   "All checks passed",
		Triggers: triggers,
	}
}

// TriggerKind returns the trigger's category, stripping any detail suffix.
// Used as a metric label so cardinality stays bounded.
func TriggerKind(trigger string) string {
	if idx := strings.Index(trigger, ":"); idx >= 0 {
		return trigger[:idx]
	}
	return trigger
}
