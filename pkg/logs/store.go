package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/constants"
	"support-chat-ai-backend/pkg/metrics"
	"support-chat-ai-backend/pkg/models"
)

var (
	ErrInvalidMode    = errors.New("mode must be 'suggestion' or 'autonomous'")
	ErrInvalidOutcome = errors.New("outcome must be 'completed', 'escalated', or 'interrupted'")
)

// Store persists conversation audit logs in Redis: the log body lives in a
// hash keyed by log id, and a sorted set scored by timestamp provides
// newest-first listing.
type Store struct {
	rdb     *redis.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewStore(rdb *redis.Client, logger *logrus.Logger, metrics *metrics.Metrics) *Store {
	return &Store{
		rdb:     rdb,
		logger:  logger,
		metrics: metrics,
	}
}

// LogFilter narrows and paginates a conversation log listing.
type LogFilter struct {
	SessionID string
	Mode      models.ConversationMode
	Page      int
	PageSize  int
}

// LogPage is one page of conversation logs, newest first.
type LogPage struct {
	Logs     []models.ConversationLog `json:"logs"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// SaveLog validates and persists a conversation log, assigning a log id and
// timestamp when absent. Returns the stored record.
func (s *Store) SaveLog(ctx context.Context, log models.ConversationLog) (models.ConversationLog, error) {
	start := time.Now()
	defer func() {
		s.metrics.RedisOperationDuration.WithLabelValues("save_log").Observe(time.Since(start).Seconds())
	}()

	if log.Mode != models.ModeSuggestion && log.Mode != models.ModeAutonomous {
		return models.ConversationLog{}, ErrInvalidMode
	}
	if log.Outcome != models.OutcomeCompleted && log.Outcome != models.OutcomeEscalated && log.Outcome != models.OutcomeInterrupted {
		return models.ConversationLog{}, ErrInvalidOutcome
	}

	if log.LogID == "" {
		log.LogID = uuid.New().String()
	}
	if log.Timestamp == 0 {
		log.Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(log)
	if err != nil {
		return models.ConversationLog{}, fmt.Errorf("failed to marshal conversation log: %w", err)
	}

	// Hash write and index update go through one pipeline so a listed id
	// always has a body.
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, constants.ConversationLogsKey, log.LogID, payload)
	pipe.ZAdd(ctx, constants.ConversationLogIndexKey, &redis.Z{
		Score:  float64(log.Timestamp),
		Member: log.LogID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithError(err).WithField("log_id", log.LogID).Error("Failed to save conversation log")
		return models.ConversationLog{}, fmt.Errorf("failed to save conversation log: %w", err)
	}

	s.metrics.ConversationLogsSaved.WithLabelValues(string(log.Outcome)).Inc()
	s.logger.WithFields(logrus.Fields{
		"log_id":     log.LogID,
		"session_id": log.SessionID,
		"mode":       log.Mode,
		"outcome":    log.Outcome,
	}).Info("Conversation log saved")

	return log, nil
}

// ListLogs returns conversation logs newest first, optionally filtered by
// session id and mode.
func (s *Store) ListLogs(ctx context.Context, filter LogFilter) (LogPage, error) {
	start := time.Now()
	defer func() {
		s.metrics.RedisOperationDuration.WithLabelValues("list_logs").Observe(time.Since(start).Seconds())
	}()

	if filter.Mode != "" && filter.Mode != models.ModeSuggestion && filter.Mode != models.ModeAutonomous {
		return LogPage{}, ErrInvalidMode
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = constants.DefaultLogPageSize
	}
	if filter.PageSize > constants.MaxLogPageSize {
		filter.PageSize = constants.MaxLogPageSize
	}

	ids, err := s.rdb.ZRevRange(ctx, constants.ConversationLogIndexKey, 0, -1).Result()
	if err != nil {
		return LogPage{}, fmt.Errorf("failed to read conversation log index: %w", err)
	}

	filtered := make([]models.ConversationLog, 0, len(ids))
	if len(ids) > 0 {
		payloads, err := s.rdb.HMGet(ctx, constants.ConversationLogsKey, ids...).Result()
		if err != nil {
			return LogPage{}, fmt.Errorf("failed to read conversation logs: %w", err)
		}

		for _, payload := range payloads {
			raw, ok := payload.(string)
			if !ok {
				// Index entry without a body; skip rather than fail the listing.
				continue
			}

			var log models.ConversationLog
			if err := json.Unmarshal([]byte(raw), &log); err != nil {
				s.logger.WithError(err).Warn("Skipping malformed conversation log")
				continue
			}

			if filter.SessionID != "" && log.SessionID != filter.SessionID {
				continue
			}
			if filter.Mode != "" && log.Mode != filter.Mode {
				continue
			}
			filtered = append(filtered, log)
		}
	}

	total := len(filtered)
	startIdx := (filter.Page - 1) * filter.PageSize
	if startIdx > total {
		startIdx = total
	}
	endIdx := startIdx + filter.PageSize
	if endIdx > total {
		endIdx = total
	}

	return LogPage{
		Logs:     filtered[startIdx:endIdx],
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
