package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

// SuggestionService generates candidate replies for a human agent to
// review (suggestion mode). Unlike the autonomous policy, nothing here
// reaches the customer without a human in the loop, so no safety gate
// applies.
type SuggestionService struct {
	generator Generator
	modelName string
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func NewSuggestionService(generator Generator, modelName string, logger *logrus.Logger, metrics *metrics.Metrics) *SuggestionService {
	return &SuggestionService{
		generator: generator,
		modelName: modelName,
		logger:    logger,
		metrics:   metrics,
	}
}

// Suggest produces one suggestion for the given conversation, honoring the
// caller's tone, length and language preferences.
func (s *SuggestionService) Suggest(ctx context.Context, req models.SuggestRequest) (models.Suggestion, error) {
	start := time.Now()
	defer func() {
		s.metrics.SuggestionDuration.Observe(time.Since(start).Seconds())
	}()

	processed, err := ProcessContext(req.ConversationContext)
	if err != nil {
		return models.Suggestion{}, err
	}

	prompt := buildSuggestionPrompt(req, processed)

	generation, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return models.Suggestion{}, &GenerationError{Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"platform":   req.Platform,
		"intent":     processed.Intent,
		"confidence": generation.Confidence,
	}).Debug("Generated suggestion")

	return models.Suggestion{
		ID:         "sugg_" + uuid.New().String(),
		Content:    generation.Text,
		Confidence: generation.Confidence,
		Reasoning:  "Generated with " + s.modelName,
	}, nil
}

func buildSuggestionPrompt(req models.SuggestRequest, processed ProcessedContext) string {
	prefs := models.UserPreferences{
		Tone:     "professional",
		Length:   "medium",
		Language: "en",
	}
	if req.UserPreferences != nil {
		if req.UserPreferences.Tone != "" {
			prefs.Tone = req.UserPreferences.Tone
		}
		if req.UserPreferences.Length != "" {
			prefs.Length = req.UserPreferences.Length
		}
		if req.UserPreferences.Language != "" {
			prefs.Language = req.UserPreferences.Language
		}
	}

	var transcript strings.Builder
	for i, msg := range processed.Messages {
		if i > 0 {
			transcript.WriteString("\n")
		}
		transcript.WriteString(strings.ToUpper(string(msg.Role)))
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
	}

	return fmt.Sprintf(`Generate a %s customer support response.

Intent: %s

Conversation:
%s

Requirements:
- Tone: %s
- Length: %s
- Language: %s

Provide a helpful response.`,
		prefs.Tone, processed.Intent, transcript.String(),
		prefs.Tone, prefs.Length, prefs.Language)
}
