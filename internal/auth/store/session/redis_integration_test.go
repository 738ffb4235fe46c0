//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinicdesk/internal/auth/models"
	"clinicdesk/internal/auth/store/session"
	"clinicdesk/pkg/testutil/containers"
)

type RedisSessionSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.Redis
}

func TestRedisSessionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionSuite))
}

func (s *RedisSessionSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisSessionSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSessionSuite) entry(expiresIn time.Duration) models.SessionEntry {
	now := time.Now()
	return models.SessionEntry{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Device:    "Chrome on Linux",
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func (s *RedisSessionSuite) TestSaveThenActive() {
	ctx := context.Background()
	entry := s.entry(time.Hour)
	s.Require().NoError(s.store.Save(ctx, entry))

	active, err := s.store.Active(ctx, entry.ID.String())
	s.Require().NoError(err)
	s.True(active)

	active, err = s.store.Active(ctx, uuid.NewString())
	s.Require().NoError(err)
	s.False(active)
}

func (s *RedisSessionSuite) TestRevoke() {
	ctx := context.Background()
	entry := s.entry(time.Hour)
	s.Require().NoError(s.store.Save(ctx, entry))

	s.Require().NoError(s.store.Revoke(ctx, entry.ID.String()))
	s.Require().NoError(s.store.Revoke(ctx, entry.ID.String()))

	active, err := s.store.Active(ctx, entry.ID.String())
	s.Require().NoError(err)
	s.False(active)
}

func (s *RedisSessionSuite) TestEntryExpiresWithTTL() {
	ctx := context.Background()
	entry := s.entry(time.Second)
	s.Require().NoError(s.store.Save(ctx, entry))

	s.Eventually(func() bool {
		active, err := s.store.Active(ctx, entry.ID.String())
		return err == nil && !active
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisSessionSuite) TestSaveAlreadyExpiredFails() {
	entry := s.entry(-time.Minute)
	s.Require().Error(s.store.Save(context.Background(), entry))
}
