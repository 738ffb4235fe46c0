package session

import (
	"context"
	"sync"
	"time"

	"clinicdesk/internal/auth/models"
)

// InMemory holds live session entries in process. Expired entries are
// reaped lazily on lookup.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]models.SessionEntry
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]models.SessionEntry),
		now:     time.Now,
	}
}

func (s *InMemory) Save(_ context.Context, entry models.SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID.String()] = entry
	return nil
}

// Revoke removes the entry. Revoking an unknown or already-revoked session
// is a no-op.
func (s *InMemory) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *InMemory) Active(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return false, nil
	}
	if s.now().After(entry.ExpiresAt) {
		delete(s.entries, sessionID)
		return false, nil
	}
	return true, nil
}

func (s *InMemory) Health(_ context.Context) error { return nil }
