package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/constants"
	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// FeedbackStore records agent feedback on suggestions, keyed by the
// original request id.
type FeedbackStore struct {
	rdb     *redis.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewFeedbackStore(rdb *redis.Client, logger *logrus.Logger, metrics *metrics.Metrics) *FeedbackStore {
	return &FeedbackStore{
		rdb:     rdb,
		logger:  logger,
		metrics: metrics,
	}
}

// SaveFeedback validates and persists a feedback record, assigning a
// feedback id and timestamp when absent.
func (fs *FeedbackStore) SaveFeedback(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	start := time.Now()
	defer func() {
		fs.metrics.RedisOperationDuration.WithLabelValues("save_feedback").Observe(time.Since(start).Seconds())
	}()

	if fb.Rating < 1 || fb.Rating > 5 {
		return models.Feedback{}, fmt.Errorf("%w: got %d", ErrInvalidRating, fb.Rating)
	}

	if fb.FeedbackID == "" {
		fb.FeedbackID = uuid.New().String()
	}
	if fb.Timestamp == 0 {
		fb.Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(fb)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("failed to marshal feedback: %w", err)
	}

	if err := fs.rdb.HSet(ctx, constants.FeedbackKey, fb.RequestID, payload).Err(); err != nil {
		fs.logger.WithError(err).WithField("request_id", fb.RequestID).Error("Failed to save feedback")
		return models.Feedback{}, fmt.Errorf("failed to save feedback: %w", err)
	}

	fs.metrics.FeedbackRatings.WithLabelValues(strconv.Itoa(fb.Rating)).Inc()
	fs.logger.WithFields(logrus.Fields{
		"feedback_id":     fb.FeedbackID,
		"request_id":      fb.RequestID,
		"rating":          fb.Rating,
		"suggestion_used": fb.SuggestionUsed,
		"modified":        fb.Modified,
	}).Info("Feedback recorded")

	return fb, nil
}

// GetFeedback returns the feedback recorded for a request id, if any.
func (fs *FeedbackStore) GetFeedback(ctx context.Context, requestID string) (models.Feedback, error) {
	payload, err := fs.rdb.HGet(ctx, constants.FeedbackKey, requestID).Result()
	if err != nil {
		if err == redis.Nil {
			return models.Feedback{}, fmt.Errorf("no feedback for request %s: %w", requestID, err)
		}
		return models.Feedback{}, fmt.Errorf("failed to read feedback: %w", err)
	}

	var fb models.Feedback
	if err := json.Unmarshal([]byte(payload), &fb); err != nil {
		return models.Feedback{}, fmt.Errorf("invalid feedback payload: %w", err)
	}

	return fb, nil
}
