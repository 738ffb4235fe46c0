package user

import (
	"context"
	"strings"
	"sync"

	"clinicdesk/internal/auth/models"
	"clinicdesk/pkg/platform/sentinel"
)

// InMemory keeps staff accounts in process, keyed by lowercase email.
type InMemory struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func NewInMemory(users ...models.User) *InMemory {
	s := &InMemory{byEmail: make(map[string]models.User, len(users))}
	for _, u := range users {
		s.byEmail[strings.ToLower(u.Email)] = u
	}
	return s
}

func (s *InMemory) Add(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	s.byEmail[key] = u
	return nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (s *InMemory) Health(_ context.Context) error { return nil }
