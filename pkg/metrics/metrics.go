package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TurnsProcessed         *prometheus.CounterVec
	SafetyTriggers         *prometheus.CounterVec
	GenerationDuration     prometheus.Histogram
	SuggestionDuration     prometheus.Histogram
	ConversationLogsSaved  *prometheus.CounterVec
	FeedbackRatings        *prometheus.CounterVec
	TurnLockContention     prometheus.Counter
	RedisOperationDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		TurnsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "autonomous_turns_processed_total",
			Help: "Total number of autonomous turns processed, by final action",
		}, []string{"action"}),
		SafetyTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safety_triggers_total",
			Help: "Total number of safety triggers recorded, by trigger kind",
		}, []string{"kind"}),
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Time taken by the reply-generation backend",
			Buckets: prometheus.DefBuckets,
		}),
		SuggestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "suggestion_duration_seconds",
			Help:    "Time taken to produce a suggestion end to end",
			Buckets: prometheus.DefBuckets,
		}),
		ConversationLogsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_logs_saved_total",
			Help: "Total number of conversation logs saved, by outcome",
		}, []string{"outcome"}),
		FeedbackRatings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "feedback_ratings_total",
			Help: "Total number of feedback submissions, by rating",
		}, []string{"rating"}),
		TurnLockContention: promauto.NewCounter(prometheus.CounterOpts{
			Name: "turn_lock_contention_total",
			Help: "Total number of turn requests rejected because a turn was already in flight",
		}),
		RedisOperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Time taken for Redis operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
