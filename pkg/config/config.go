package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"support-chat-ai-backend/pkg/constants"
)

type Config struct {
	Port               string
	RedisURL           string
	LogLevel           string
	Environment        string
	GCPProjectID       string
	VertexAILocation   string
	GeminiModel        string
	TurnLockTTLSeconds int
	PodID              string
}

// Load builds the configuration from environment variables. Project and
// region are carried here explicitly rather than mutated into the process
// environment, so the agent services stay testable.
func Load() *Config {
	config := &Config{
		Port:               getEnv(constants.EnvPort, "8080"),
		RedisURL:           getEnv(constants.EnvRedisURL, "redis://localhost:6379"),
		LogLevel:           getEnv(constants.EnvLogLevel, "info"),
		Environment:        getEnv(constants.EnvEnvironment, "production"),
		GCPProjectID:       getEnv(constants.EnvGCPProjectID, ""),
		VertexAILocation:   getEnv(constants.EnvVertexAILocation, "us-central1"),
		GeminiModel:        getEnv(constants.EnvGeminiModel, "gemini-2.5-flash"),
		TurnLockTTLSeconds: getEnvInt(constants.EnvTurnLockTTL, constants.DefaultTurnLockTTLSeconds),
		PodID:              getEnv("POD_ID", generatePodID()),
	}

	return config
}

func (c *Config) TurnLockTTL() time.Duration {
	return constants.SecondsToDuration(c.TurnLockTTLSeconds)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func generatePodID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return uuid.New().String()
	}
	return hostname + "-" + uuid.New().String()[:8]
}
