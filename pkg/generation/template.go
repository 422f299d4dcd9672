package generation

import (
	"context"

	"support-chat-ai-backend/pkg/agent"
)

// Default canned reply and confidence, matching the behavior shipped while
// the real model integration is pending.
const (
	DefaultReply      = "I'm here to help resolve your issue. Let me gather some information."
	DefaultConfidence = 0.8
)

// Template is a deterministic reply backend. It stands in for the Vertex AI
// model call behind the agent.Generator interface and doubles as the offline
// backend for local development and tests.
type Template struct {
	Reply      string
	Confidence float64
}

func NewTemplate() *Template {
	return &Template{
		Reply:      DefaultReply,
		Confidence: DefaultConfidence,
	}
}

func (t *Template) Generate(ctx context.Context, prompt string) (agent.Generation, error) {
	if err := ctx.Err(); err != nil {
		return agent.Generation{}, err
	}
	return agent.Generation{
		Text:       t.Reply,
		Confidence: t.Confidence,
	}, nil
}
