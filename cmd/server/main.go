package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/agent"
	"support-chat-ai-backend/pkg/config"
	"support-chat-ai-backend/pkg/generation"
	"support-chat-ai-backend/pkg/handlers"
	"support-chat-ai-backend/pkg/logs"
	"support-chat-ai-backend/pkg/metrics"
	redisClient "support-chat-ai-backend/pkg/redis"
	"support-chat-ai-backend/pkg/server"
	"support-chat-ai-backend/pkg/session"
)

func main() {
	// Load .env if present, then configuration from the environment
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// Setup logger
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"pod_id":      cfg.PodID,
		"environment": cfg.Environment,
	}).Info("Starting support chat AI backend")

	// Initialize metrics
	m := metrics.NewMetrics()

	// Connect to Redis
	redisConfig := redisClient.DefaultConnectionConfig()
	redisConfig.URL = cfg.RedisURL

	redis, err := redisClient.NewClient(redisConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	// Reply-generation backend. The Template backend stands in for the
	// Vertex AI call until the model integration lands.
	var generator agent.Generator = generation.NewTemplate()

	// Agent services
	policy := agent.NewPolicy(generator, logger, m)
	suggestions := agent.NewSuggestionService(generator, cfg.GeminiModel, logger, m)

	// Redis-backed collaborators
	rdb := redis.GetRedisClient()
	logStore := logs.NewStore(rdb, logger, m)
	feedbackStore := logs.NewFeedbackStore(rdb, logger, m)
	turnLock := session.NewTurnLock(rdb, logger, cfg.PodID, cfg.TurnLockTTL())

	handler := handlers.NewHandler(policy, suggestions, logStore, feedbackStore, turnLock, redis, cfg, logger, m)
	srv := server.NewHTTPServer(cfg, handler, logger)

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	logger.Info("Server shutdown complete")
}
