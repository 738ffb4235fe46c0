package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinicdesk/internal/patient/models"
	"clinicdesk/pkg/platform/sentinel"
)

type PatientStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *PatientStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestPatientStoreSuite(t *testing.T) {
	suite.Run(t, new(PatientStoreSuite))
}

func (s *PatientStoreSuite) newPatient(name string) models.Patient {
	now := time.Now()
	return models.Patient{
		ID:        uuid.New(),
		Name:      name,
		Email:     "p@example.com",
		Phone:     "555-0100",
		Address:   "1 Main St",
		Gender:    models.GenderUnspecified,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PatientStoreSuite) TestInsertAndLookups() {
	s.Run("inserts and finds by ID", func() {
		p := s.newPatient("Ada")
		s.Require().NoError(s.store.Insert(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Name, found.Name)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		p := s.newPatient("Dup")
		s.Require().NoError(s.store.Insert(s.ctx, p))
		s.Require().ErrorIs(s.store.Insert(s.ctx, p), sentinel.ErrConflict)
	})
}

func (s *PatientStoreSuite) TestListPreservesInsertionOrder() {
	first := s.newPatient("First")
	second := s.newPatient("Second")
	third := s.newPatient("Third")
	for _, p := range []models.Patient{first, second, third} {
		s.Require().NoError(s.store.Insert(s.ctx, p))
	}

	listed, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.Equal([]uuid.UUID{first.ID, second.ID, third.ID},
		[]uuid.UUID{listed[0].ID, listed[1].ID, listed[2].ID})
}

func (s *PatientStoreSuite) TestReplace() {
	s.Run("keeps position on replace", func() {
		first := s.newPatient("First")
		second := s.newPatient("Second")
		s.Require().NoError(s.store.Insert(s.ctx, first))
		s.Require().NoError(s.store.Insert(s.ctx, second))

		first.Name = "Renamed"
		s.Require().NoError(s.store.Replace(s.ctx, first))

		listed, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Equal("Renamed", listed[0].Name)
		s.Equal(second.ID, listed[1].ID)
	})

	s.Run("returns ErrNotFound for non-existent record", func() {
		s.Require().ErrorIs(s.store.Replace(s.ctx, s.newPatient("Ghost")), sentinel.ErrNotFound)
	})
}

func (s *PatientStoreSuite) TestDelete() {
	p := s.newPatient("Gone")
	s.Require().NoError(s.store.Insert(s.ctx, p))

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))

	_, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Delete is not idempotent: a second delete reports the record missing.
	s.Require().ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}
