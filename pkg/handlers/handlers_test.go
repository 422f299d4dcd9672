package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chat-ai-backend/pkg/agent"
	"support-chat-ai-backend/pkg/config"
	"support-chat-ai-backend/pkg/logs"
	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

var (
	testMetricsOnce sync.Once
	testMetricsInst *metrics.Metrics
)

func testMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetricsInst = metrics.NewMetrics()
	})
	return testMetricsInst
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

type stubGenerator struct {
	text       string
	confidence float64
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (agent.Generation, error) {
	return agent.Generation{Text: g.text, Confidence: g.confidence}, nil
}

type fakeLogStore struct {
	saved []models.ConversationLog
}

func (f *fakeLogStore) SaveLog(ctx context.Context, log models.ConversationLog) (models.ConversationLog, error) {
	if log.Mode != models.ModeSuggestion && log.Mode != models.ModeAutonomous {
		return models.ConversationLog{}, logs.ErrInvalidMode
	}
	if log.Outcome != models.OutcomeCompleted && log.Outcome != models.OutcomeEscalated && log.Outcome != models.OutcomeInterrupted {
		return models.ConversationLog{}, logs.ErrInvalidOutcome
	}
	log.LogID = fmt.Sprintf("log_%d", len(f.saved)+1)
	f.saved = append(f.saved, log)
	return log, nil
}

func (f *fakeLogStore) ListLogs(ctx context.Context, filter logs.LogFilter) (logs.LogPage, error) {
	if filter.Mode != "" && filter.Mode != models.ModeSuggestion && filter.Mode != models.ModeAutonomous {
		return logs.LogPage{}, logs.ErrInvalidMode
	}
	return logs.LogPage{
		Logs:     f.saved,
		Total:    len(f.saved),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

type fakeFeedbackSink struct {
	saved []models.Feedback
}

func (f *fakeFeedbackSink) SaveFeedback(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return models.Feedback{}, logs.ErrInvalidRating
	}
	fb.FeedbackID = fmt.Sprintf("fb_%d", len(f.saved)+1)
	f.saved = append(f.saved, fb)
	return fb, nil
}

type fakeTurnLock struct {
	busy     bool
	acquired []string
	released []string
}

func (f *fakeTurnLock) Acquire(ctx context.Context, sessionID string) (bool, error) {
	if f.busy {
		return false, nil
	}
	f.acquired = append(f.acquired, sessionID)
	return true, nil
}

func (f *fakeTurnLock) Release(ctx context.Context, sessionID string) error {
	f.released = append(f.released, sessionID)
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

type handlerFixture struct {
	handler  *Handler
	logStore *fakeLogStore
	feedback *fakeFeedbackSink
	turnLock *fakeTurnLock
	pinger   *fakePinger
}

func newFixture(gen agent.Generator) *handlerFixture {
	logger := testLogger()
	m := testMetrics()
	cfg := &config.Config{
		GeminiModel: "gemini-2.5-flash",
		Environment: "test",
		PodID:       "pod-test",
	}

	fixture := &handlerFixture{
		logStore: &fakeLogStore{},
		feedback: &fakeFeedbackSink{},
		turnLock: &fakeTurnLock{},
		pinger:   &fakePinger{},
	}

	fixture.handler = NewHandler(
		agent.NewPolicy(gen, logger, m),
		agent.NewSuggestionService(gen, cfg.GeminiModel, logger, m),
		fixture.logStore,
		fixture.feedback,
		fixture.turnLock,
		fixture.pinger,
		cfg,
		logger,
		m,
	)
	return fixture
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func autonomousPayload() models.AutonomousRequest {
	return models.AutonomousRequest{
		SessionID: "sess_1",
		Goal:      models.Goal{Description: "resolve shipping delay", MaxTurns: 5},
		GoalState: models.GoalState{Active: true, CurrentTurn: 0},
		SafetyConstraints: models.SafetyConstraints{
			MinConfidence:      0.5,
			EscalationKeywords: []string{"lawsuit"},
			StopIfConfused:     true,
		},
		ConversationContext: []models.Message{
			{Role: models.RoleCustomer, Content: "My order #42 is late", Timestamp: 1704067200},
		},
	}
}

func TestAutonomousResponse_Respond(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "Checking order #42 now.", confidence: 0.9})

	rec := postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", autonomousPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		models.PolicyOutcome
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, models.ActionRespond, response.Action)
	require.NotNil(t, response.ResponseText)
	assert.Equal(t, "Checking order #42 now.", *response.ResponseText)
	assert.Equal(t, 1, response.UpdatedState.CurrentTurn)
	assert.NotEmpty(t, response.Metadata.RequestID)
	assert.Equal(t, "gemini-2.5-flash", response.Metadata.ModelUsed)

	assert.Equal(t, []string{"sess_1"}, fixture.turnLock.acquired)
	assert.Equal(t, []string{"sess_1"}, fixture.turnLock.released)
}

func TestAutonomousResponse_EscalationOmitsReply(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "This could become a lawsuit.", confidence: 0.9})

	rec := postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", autonomousPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		models.PolicyOutcome
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, models.ActionEscalate, response.Action)
	assert.Nil(t, response.ResponseText)
}

func TestAutonomousResponse_BusySessionConflicts(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.9})
	fixture.turnLock.busy = true

	rec := postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", autonomousPayload())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAutonomousResponse_Validation(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.9})

	missingSession := autonomousPayload()
	missingSession.SessionID = ""
	rec := postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", missingSession)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missingGoal := autonomousPayload()
	missingGoal.Goal.Description = ""
	rec = postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", missingGoal)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	emptyContext := autonomousPayload()
	emptyContext.ConversationContext = nil
	rec = postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", emptyContext)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	overBudget := autonomousPayload()
	overBudget.GoalState.CurrentTurn = 5
	rec = postJSON(t, fixture.handler.AutonomousResponse, "/api/autonomous-response", overBudget)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "max turns reached")
}

func TestSuggestResponse(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "Thanks for reaching out!", confidence: 0.85})

	payload := models.SuggestRequest{
		Platform: "zendesk",
		ConversationContext: []models.Message{
			{Role: models.RoleCustomer, Content: "Where is my order?", Timestamp: 1704067200},
		},
	}

	rec := postJSON(t, fixture.handler.SuggestResponse, "/api/suggest-response", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Suggestions []models.Suggestion `json:"suggestions"`
		Metadata    Metadata            `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.Len(t, response.Suggestions, 1)
	assert.Equal(t, "Thanks for reaching out!", response.Suggestions[0].Content)
	assert.NotEmpty(t, response.Metadata.RequestID)
}

func TestSuggestResponse_RejectsBadMessages(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	payload := models.SuggestRequest{
		Platform: "zendesk",
		ConversationContext: []models.Message{
			{Role: "bot", Content: "hello", Timestamp: 1},
		},
	}

	rec := postJSON(t, fixture.handler.SuggestResponse, "/api/suggest-response", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitFeedback(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	rec := postJSON(t, fixture.handler.SubmitFeedback, "/api/feedback", map[string]interface{}{
		"request_id":      "req_42",
		"rating":          4,
		"suggestion_used": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "success", response["status"])
	assert.NotEmpty(t, response["feedback_id"])
	require.Len(t, fixture.feedback.saved, 1)
	assert.Equal(t, "req_42", fixture.feedback.saved[0].RequestID)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	rec := postJSON(t, fixture.handler.SubmitFeedback, "/api/feedback", map[string]interface{}{
		"rating": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, fixture.handler.SubmitFeedback, "/api/feedback", map[string]interface{}{
		"request_id": "req_42",
		"rating":     9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveConversationLog(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	rec := postJSON(t, fixture.handler.SaveConversationLog, "/api/conversation-logs", models.ConversationLog{
		SessionID: "sess_1",
		Mode:      models.ModeAutonomous,
		Outcome:   models.OutcomeEscalated,
		ConversationContext: []models.Message{
			{Role: models.RoleCustomer, Content: "hi", Timestamp: 1},
		},
		ActionsTaken: []string{"escalate"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fixture.logStore.saved, 1)

	rec = postJSON(t, fixture.handler.SaveConversationLog, "/api/conversation-logs", models.ConversationLog{
		SessionID: "sess_1",
		Mode:      "hybrid",
		Outcome:   models.OutcomeCompleted,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListConversationLogs(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})
	fixture.logStore.saved = []models.ConversationLog{
		{LogID: "log_1", SessionID: "sess_1", Mode: models.ModeAutonomous, Outcome: models.OutcomeCompleted},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversation-logs?mode=autonomous&page=1&page_size=10", nil)
	rec := httptest.NewRecorder()
	fixture.handler.ListConversationLogs(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var page logs.LogPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)

	req = httptest.NewRequest(http.MethodGet, "/api/conversation-logs?mode=hybrid", nil)
	rec = httptest.NewRecorder()
	fixture.handler.ListConversationLogs(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	fixture.handler.Health(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	fixture.pinger.err = fmt.Errorf("connection refused")
	rec = httptest.NewRecorder()
	fixture.handler.Health(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	fixture := newFixture(&stubGenerator{text: "ok", confidence: 0.85})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	fixture.handler.Status(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "test", response["environment"])
	assert.Equal(t, "pod-test", response["pod_id"])
}
