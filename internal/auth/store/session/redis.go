package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clinicdesk/internal/auth/models"
	"clinicdesk/pkg/platform/sentinel"
)

// Redis key prefix for live sessions
const sessionKeyPrefix = "session:"

// Redis backs session entries with TTL'd keys so revocation state is shared
// across instances. Key existence is what matters; the value carries the
// owning user for debugging.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (s *Redis) Save(ctx context.Context, entry models.SessionEntry) error {
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", entry.ID)
	}
	key := sessionKeyPrefix + entry.ID.String()
	if err := s.client.Set(ctx, key, entry.UserID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Redis) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Redis) Active(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return true, nil
}

func (s *Redis) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
