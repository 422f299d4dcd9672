package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"support-chat-ai-backend/pkg/constants"
)

// TurnLock serializes autonomous turns per conversation session. Goal state
// is not safe for concurrent mutation, so only one turn per session may be
// in flight; turns across independent sessions proceed in parallel.
type TurnLock struct {
	rdb    *redis.Client
	logger *logrus.Logger
	owner  string
	ttl    time.Duration
}

func NewTurnLock(rdb *redis.Client, logger *logrus.Logger, owner string, ttl time.Duration) *TurnLock {
	return &TurnLock{
		rdb:    rdb,
		logger: logger,
		owner:  owner,
		ttl:    ttl,
	}
}

// Acquire attempts to take the turn lock for a session. Returns false when
// another turn is already in flight. The TTL bounds how long a crashed
// holder can block the session.
func (tl *TurnLock) Acquire(ctx context.Context, sessionID string) (bool, error) {
	acquired, err := tl.rdb.SetNX(ctx, lockKey(sessionID), tl.owner, tl.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire turn lock: %w", err)
	}

	if acquired {
		tl.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"owner":      tl.owner,
		}).Debug("Acquired turn lock")
	}

	return acquired, nil
}

// Release frees the turn lock, but only if this instance still owns it. A
// lock that expired and was re-acquired elsewhere is left alone.
func (tl *TurnLock) Release(ctx context.Context, sessionID string) error {
	key := lockKey(sessionID)

	current, err := tl.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to verify turn lock owner: %w", err)
	}

	if current != tl.owner {
		tl.logger.WithField("session_id", sessionID).Warn("Turn lock owned by another instance, not releasing")
		return nil
	}

	if err := tl.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release turn lock: %w", err)
	}

	tl.logger.WithField("session_id", sessionID).Debug("Released turn lock")
	return nil
}

func lockKey(sessionID string) string {
	return constants.TurnLockKeyPrefix + sessionID
}
