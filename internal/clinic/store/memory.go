package store

import (
	"context"
	"sync"

	"clinicdesk/internal/clinic/models"
	"clinicdesk/pkg/platform/sentinel"
)

// InMemory holds the settings singleton in process.
type InMemory struct {
	mu       sync.RWMutex
	settings models.Settings
	set      bool
}

// NewInMemory returns an empty store; Load reports ErrNotFound until the
// first Save.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// NewInMemorySeeded returns a store pre-populated with initial.
func NewInMemorySeeded(initial models.Settings) *InMemory {
	return &InMemory{settings: initial, set: true}
}

func (s *InMemory) Load(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return models.Settings{}, sentinel.ErrNotFound
	}
	return s.settings, nil
}

func (s *InMemory) Save(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.set = true
	return nil
}

func (s *InMemory) Health(_ context.Context) error { return nil }
