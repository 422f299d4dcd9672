package agent

import (
	"fmt"
	"regexp"
	"strings"

	"support-chat-ai-backend/pkg/constants"
	"support-chat-ai-backend/pkg/models"
)

// Intent labels produced by the context processor.
const (
	IntentOrderInquiry   = "order_inquiry"
	IntentRefundRequest  = "refund_request"
	IntentGeneralInquiry = "general_inquiry"
)

var (
	orderNumberPattern = regexp.MustCompile(`#\d+`)
	emailPattern       = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// Intent keyword sets, checked in priority order. First match wins.
var (
	orderKeywords  = []string{"order", "shipping", "delivery"}
	refundKeywords = []string{"refund", "return", "cancel"}
)

// ProcessedContext is the normalized view of a conversation history.
type ProcessedContext struct {
	Messages []models.Message
	Intent   string
	Entities models.ExtractedEntities
}

// ProcessContext normalizes the raw message history, extracts entities and
// classifies a coarse intent. Pure function of its input; identical input
// yields identical output.
func ProcessContext(messages []models.Message) (ProcessedContext, error) {
	if len(messages) < constants.MinContextMessages || len(messages) > constants.MaxContextMessages {
		return ProcessedContext{}, fmt.Errorf("%w: got %d messages", ErrInvalidInput, len(messages))
	}

	processed := make([]models.Message, 0, len(messages))
	entities := models.ExtractedEntities{
		OrderNumbers: []string{},
		Emails:       []string{},
	}

	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		processed = append(processed, models.Message{
			Role:      msg.Role,
			Content:   content,
			Timestamp: msg.Timestamp,
		})

		entities.OrderNumbers = append(entities.OrderNumbers, orderNumberPattern.FindAllString(content, -1)...)
		entities.Emails = append(entities.Emails, emailPattern.FindAllString(content, -1)...)
	}

	return ProcessedContext{
		Messages: processed,
		Intent:   classifyIntent(processed),
		Entities: entities,
	}, nil
}

func classifyIntent(messages []models.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(msg.Content)
	}
	allContent := strings.ToLower(b.String())

	if containsAny(allContent, orderKeywords) {
		return IntentOrderInquiry
	}
	if containsAny(allContent, refundKeywords) {
		return IntentRefundRequest
	}
	return IntentGeneralInquiry
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
