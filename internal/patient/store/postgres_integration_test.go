//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinicdesk/internal/patient/models"
	"clinicdesk/internal/patient/store"
	"clinicdesk/pkg/platform/sentinel"
	"clinicdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "patients"))
}

func newTestPatient(name string) models.Patient {
	now := time.Now().UTC().Truncate(time.Microsecond)
	bg := models.BloodOPos
	dob := time.Date(1988, 4, 12, 0, 0, 0, 0, time.UTC)
	return models.Patient{
		ID:             uuid.New(),
		Name:           name,
		Email:          "p@example.com",
		Phone:          "555-0100",
		Address:        "1 Main St",
		DateOfBirth:    &dob,
		Gender:         models.GenderFemale,
		BloodGroup:     &bg,
		Allergies:      []string{"penicillin", "latex"},
		MedicalHistory: "unremarkable",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	p := newTestPatient("Ada")
	s.Require().NoError(s.store.Insert(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Name, found.Name)
	s.Equal(p.Allergies, found.Allergies)
	s.Require().NotNil(found.BloodGroup)
	s.Equal(models.BloodOPos, *found.BloodGroup)
	s.Require().NotNil(found.DateOfBirth)
	s.Equal(p.DateOfBirth.Format("2006-01-02"), found.DateOfBirth.Format("2006-01-02"))
}

func (s *PostgresStoreSuite) TestOptionalFieldsStayDistinct() {
	ctx := context.Background()
	p := newTestPatient("Bare")
	p.BloodGroup = nil
	p.DateOfBirth = nil
	p.Allergies = nil // unknown, distinct from empty
	s.Require().NoError(s.store.Insert(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(found.BloodGroup)
	s.Nil(found.DateOfBirth)
	s.Nil(found.Allergies)

	q := newTestPatient("Empty")
	q.Allergies = []string{} // none recorded
	s.Require().NoError(s.store.Insert(ctx, q))

	found, err = s.store.FindByID(ctx, q.ID)
	s.Require().NoError(err)
	s.NotNil(found.Allergies)
	s.Empty(found.Allergies)
}

func (s *PostgresStoreSuite) TestListPreservesInsertionOrderAcrossReplace() {
	ctx := context.Background()
	first := newTestPatient("First")
	second := newTestPatient("Second")
	s.Require().NoError(s.store.Insert(ctx, first))
	s.Require().NoError(s.store.Insert(ctx, second))

	first.Name = "Renamed"
	first.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.store.Replace(ctx, first))

	listed, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Renamed", listed[0].Name)
	s.Equal(second.ID, listed[1].ID)
}

func (s *PostgresStoreSuite) TestSentinelTranslation() {
	ctx := context.Background()
	p := newTestPatient("Solo")
	s.Require().NoError(s.store.Insert(ctx, p))

	s.Require().ErrorIs(s.store.Insert(ctx, p), sentinel.ErrConflict)

	_, err := s.store.FindByID(ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	ghost := newTestPatient("Ghost")
	s.Require().ErrorIs(s.store.Replace(ctx, ghost), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	s.Require().ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)
}
