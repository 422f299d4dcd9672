package constants

import "time"

// Conversation history bounds enforced by the context processor
const (
	// MinContextMessages - a request must carry at least one message
	MinContextMessages = 1

	// MaxContextMessages - hard cap on messages per request
	MaxContextMessages = 50

	// MaxMessageContentLength - hard cap on a single message body
	MaxMessageContentLength = 10000
)

// Goal progress accounting
const (
	// TurnProgressCap - progress from turn count alone never reaches 1.0;
	// completion must be asserted explicitly via a resolving action
	TurnProgressCap = 0.9

	// ResolvedMarker - substring in the latest action that forces progress to 1.0
	ResolvedMarker = "resolved"
)

// Default configuration values
const (
	// DefaultTurnLockTTLSeconds - how long a per-session turn lock may be held
	DefaultTurnLockTTLSeconds = 60

	// DefaultLogPageSize - default page size for conversation log listings
	DefaultLogPageSize = 10

	// MaxLogPageSize - upper bound on conversation log page size
	MaxLogPageSize = 100
)

// Redis key prefixes and names
const (
	ConversationLogsKey     = "conversation_logs"
	ConversationLogIndexKey = "conversation_log_index"
	FeedbackKey             = "feedback"
	TurnLockKeyPrefix       = "turn_lock:"
)

// Configuration environment variable names
const (
	EnvPort             = "PORT"
	EnvRedisURL         = "REDIS_URL"
	EnvLogLevel         = "LOG_LEVEL"
	EnvEnvironment      = "ENVIRONMENT"
	EnvGCPProjectID     = "GCP_PROJECT_ID"
	EnvVertexAILocation = "VERTEX_AI_LOCATION"
	EnvGeminiModel      = "GEMINI_MODEL"
	EnvTurnLockTTL      = "TURN_LOCK_TTL_SECONDS"
)

func SecondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
