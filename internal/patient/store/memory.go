package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"clinicdesk/internal/patient/models"
	"clinicdesk/pkg/platform/sentinel"
)

// InMemory owns the patient collection in process. Insertion order is
// preserved: List returns records in the order they were inserted, and
// Replace keeps a record's position.
type InMemory struct {
	mu    sync.RWMutex
	order []uuid.UUID
	byID  map[uuid.UUID]models.Patient
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]models.Patient)}
}

func (s *InMemory) Insert(_ context.Context, p models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return models.Patient{}, sentinel.ErrNotFound
}

func (s *InMemory) Replace(_ context.Context, p models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[p.ID] = p
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemory) List(_ context.Context) ([]models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *InMemory) Health(_ context.Context) error { return nil }
