package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/agent"
	"support-chat-ai-backend/pkg/config"
	"support-chat-ai-backend/pkg/constants"
	"support-chat-ai-backend/pkg/logs"
	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

// LogStore persists and lists conversation audit logs.
type LogStore interface {
	SaveLog(ctx context.Context, log models.ConversationLog) (models.ConversationLog, error)
	ListLogs(ctx context.Context, filter logs.LogFilter) (logs.LogPage, error)
}

// FeedbackSink records suggestion feedback.
type FeedbackSink interface {
	SaveFeedback(ctx context.Context, fb models.Feedback) (models.Feedback, error)
}

// TurnLocker serializes autonomous turns per session.
type TurnLocker interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

// Pinger reports backing-store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	policy      *agent.Policy
	suggestions *agent.SuggestionService
	logStore    LogStore
	feedback    FeedbackSink
	turnLock    TurnLocker
	pinger      Pinger
	config      *config.Config
	logger      *logrus.Logger
	metrics     *metrics.Metrics
}

func NewHandler(policy *agent.Policy, suggestions *agent.SuggestionService, logStore LogStore, feedback FeedbackSink, turnLock TurnLocker, pinger Pinger, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		policy:      policy,
		suggestions: suggestions,
		logStore:    logStore,
		feedback:    feedback,
		turnLock:    turnLock,
		pinger:      pinger,
		config:      cfg,
		logger:      logger,
		metrics:     m,
	}
}

// Metadata describes one request's processing for the caller.
type Metadata struct {
	RequestID        string `json:"request_id"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	ModelUsed        string `json:"model_used"`
	Timestamp        int64  `json:"timestamp"`
}

func (h *Handler) newMetadata(start time.Time) Metadata {
	return Metadata{
		RequestID:        uuid.New().String(),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		ModelUsed:        h.config.GeminiModel,
		Timestamp:        time.Now().Unix(),
	}
}

// SuggestResponse handles POST /api/suggest-response (Suggestion Mode).
func (h *Handler) SuggestResponse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request models.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if msg := validateMessages(request.ConversationContext); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	suggestion, err := h.suggestions.Suggest(r.Context(), request)
	if err != nil {
		h.writeAgentError(w, err, "Failed to generate suggestion")
		return
	}

	response := struct {
		Suggestions []models.Suggestion `json:"suggestions"`
		Metadata    Metadata            `json:"metadata"`
	}{
		Suggestions: []models.Suggestion{suggestion},
		Metadata:    h.newMetadata(start),
	}

	writeJSON(w, response)
}

// AutonomousResponse handles POST /api/autonomous-response (YOLO Mode).
func (h *Handler) AutonomousResponse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request models.AutonomousRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if request.SessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}
	if request.Goal.Description == "" {
		http.Error(w, "Goal description required", http.StatusBadRequest)
		return
	}
	if msg := validateMessages(request.ConversationContext); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	acquired, err := h.turnLock.Acquire(r.Context(), request.SessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", request.SessionID).Error("Failed to acquire turn lock")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !acquired {
		h.metrics.TurnLockContention.Inc()
		http.Error(w, "A turn is already in flight for this session", http.StatusConflict)
		return
	}
	defer func() {
		if err := h.turnLock.Release(r.Context(), request.SessionID); err != nil {
			h.logger.WithError(err).WithField("session_id", request.SessionID).Error("Failed to release turn lock")
		}
	}()

	outcome, err := h.policy.Decide(r.Context(), request)
	if err != nil {
		h.writeAgentError(w, err, "Autonomous processing failed")
		return
	}

	response := struct {
		models.PolicyOutcome
		Metadata Metadata `json:"metadata"`
	}{
		PolicyOutcome: outcome,
		Metadata:      h.newMetadata(start),
	}

	writeJSON(w, response)
}

// SubmitFeedback handles POST /api/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RequestID      string `json:"request_id"`
		Rating         int    `json:"rating"`
		FeedbackText   string `json:"feedback_text,omitempty"`
		SuggestionUsed bool   `json:"suggestion_used"`
		Modified       bool   `json:"modified"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if request.RequestID == "" {
		http.Error(w, "Request ID required", http.StatusBadRequest)
		return
	}

	fb, err := h.feedback.SaveFeedback(r.Context(), models.Feedback{
		RequestID:      request.RequestID,
		Rating:         request.Rating,
		FeedbackText:   request.FeedbackText,
		SuggestionUsed: request.SuggestionUsed,
		Modified:       request.Modified,
	})
	if err != nil {
		if errors.Is(err, logs.ErrInvalidRating) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to record feedback")
		http.Error(w, "Failed to record feedback", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"feedback_id": fb.FeedbackID,
		"status":      "success",
		"message":     "Feedback recorded successfully",
	})
}

// SaveConversationLog handles POST /api/conversation-logs.
func (h *Handler) SaveConversationLog(w http.ResponseWriter, r *http.Request) {
	var log models.ConversationLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := h.logStore.SaveLog(r.Context(), log)
	if err != nil {
		if errors.Is(err, logs.ErrInvalidMode) || errors.Is(err, logs.ErrInvalidOutcome) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to save conversation log")
		http.Error(w, "Failed to save log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"log_id":  saved.LogID,
		"status":  "success",
		"message": "Conversation log saved successfully",
	})
}

// ListConversationLogs handles GET /api/conversation-logs.
func (h *Handler) ListConversationLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := logs.LogFilter{
		SessionID: query.Get("session_id"),
		Mode:      models.ConversationMode(query.Get("mode")),
		Page:      parseIntOrDefault(query.Get("page"), 1),
		PageSize:  parseIntOrDefault(query.Get("page_size"), constants.DefaultLogPageSize),
	}

	page, err := h.logStore.ListLogs(r.Context(), filter)
	if err != nil {
		if errors.Is(err, logs.ErrInvalidMode) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.WithError(err).Error("Failed to retrieve conversation logs")
		http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, page)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		http.Error(w, "Health check failed", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]interface{}{
		"status":      "healthy",
		"environment": h.config.Environment,
		"timestamp":   time.Now().Unix(),
	})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"environment": h.config.Environment,
		"model_used":  h.config.GeminiModel,
		"pod_id":      h.config.PodID,
		"timestamp":   time.Now().Unix(),
	})
}

// writeAgentError maps core policy errors onto HTTP status codes. Caller
// mistakes are 400s, a collaborator failure is a 502 the caller may retry.
func (h *Handler) writeAgentError(w http.ResponseWriter, err error, fallback string) {
	var genErr *agent.GenerationError

	switch {
	case errors.Is(err, agent.ErrInvalidInput),
		errors.Is(err, agent.ErrInvalidGoal),
		errors.Is(err, agent.ErrTurnLimitExceeded):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &genErr):
		h.logger.WithError(err).Error("Reply generation failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.WithError(err).Error(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func validateMessages(messages []models.Message) string {
	if len(messages) == 0 {
		return "Conversation context required"
	}
	if len(messages) > constants.MaxContextMessages {
		return "Conversation context exceeds " + strconv.Itoa(constants.MaxContextMessages) + " messages"
	}
	for _, msg := range messages {
		if msg.Role != models.RoleAgent && msg.Role != models.RoleCustomer {
			return "Message role must be 'agent' or 'customer'"
		}
		if msg.Content == "" || len(msg.Content) > constants.MaxMessageContentLength {
			return "Message content must be 1 to " + strconv.Itoa(constants.MaxMessageContentLength) + " characters"
		}
		if msg.Timestamp <= 0 {
			return "Message timestamp must be positive"
		}
	}
	return ""
}

func parseIntOrDefault(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
