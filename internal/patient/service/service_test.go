package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinicdesk/internal/patient/models"
	"clinicdesk/internal/patient/store"
	domainerrors "clinicdesk/pkg/domain-errors"
	auditpub "clinicdesk/pkg/platform/audit/publisher"
	"clinicdesk/pkg/platform/audit/store/memory"
)

type PatientServiceSuite struct {
	suite.Suite
	svc   *Service
	audit *memory.InMemoryStore
	ctx   context.Context
}

func (s *PatientServiceSuite) SetupTest() {
	s.audit = memory.NewInMemoryStore()
	s.svc = New(store.NewInMemory(),
		WithAuditPublisher(auditpub.NewPublisher(s.audit)),
	)
	s.ctx = context.Background()
}

func TestPatientServiceSuite(t *testing.T) {
	suite.Run(t, new(PatientServiceSuite))
}

func validDraft() models.Draft {
	return models.Draft{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Address: "12 Analytical Rd",
		Gender:  models.GenderFemale,
	}
}

func (s *PatientServiceSuite) TestCreateThenGetRoundTrips() {
	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	s.Require().NotEqual(uuid.Nil, created.ID)

	got, err := s.svc.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, got)
}

func (s *PatientServiceSuite) TestCreateAssignsUniqueIDs() {
	a, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	b, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	s.NotEqual(a.ID, b.ID)
}

func (s *PatientServiceSuite) TestCreateRejectsInvalidDraftCompletely() {
	// "Jo" passes the two-character name rule; the other three fields fail.
	draft := models.Draft{Name: "Jo", Email: "x", Phone: "123", Address: "St"}

	_, err := s.svc.Create(s.ctx, draft)
	s.Require().Error(err)
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeValidation))

	fields := domainerrors.FieldsOf(err)
	s.NotContains(fields, "name")
	s.Equal([]string{"invalid_format"}, fields["email"])
	s.Equal([]string{"too_short"}, fields["phone"])
	s.Equal([]string{"too_short"}, fields["address"])

	listed, err := s.svc.List(s.ctx, "", models.SortNone)
	s.Require().NoError(err)
	s.Empty(listed, "failed create leaves the store unchanged")
}

func (s *PatientServiceSuite) TestUpdateIsIdempotent() {
	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)

	draft := validDraft()
	draft.Name = "Ada King"

	first, err := s.svc.Update(s.ctx, created.ID, draft)
	s.Require().NoError(err)
	second, err := s.svc.Update(s.ctx, created.ID, draft)
	s.Require().NoError(err)

	s.Equal(first.Name, second.Name)
	s.Equal(first.CreatedAt, second.CreatedAt, "creation time survives updates")

	listed, err := s.svc.List(s.ctx, "", models.SortNone)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("Ada King", listed[0].Name)
}

func (s *PatientServiceSuite) TestUpdateValidationLeavesRecordIntact() {
	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, created.ID, models.Draft{Name: "X"})
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeValidation))

	got, err := s.svc.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, got)
}

func (s *PatientServiceSuite) TestUpdateUnknownIDIsNotFound() {
	_, err := s.svc.Update(s.ctx, uuid.New(), validDraft())
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func (s *PatientServiceSuite) TestDeleteThenGetIsNotFound() {
	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, created.ID))

	_, err = s.svc.Get(s.ctx, created.ID)
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeNotFound))

	// Not idempotent by contract.
	err = s.svc.Delete(s.ctx, created.ID)
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func (s *PatientServiceSuite) TestListFilterMatchesNameAndEmail() {
	ada := validDraft()
	grace := models.Draft{
		Name: "Grace Hopper", Email: "grace@navy.mil",
		Phone: "555-0101", Address: "1 Harbor Way", Gender: models.GenderFemale,
	}
	_, err := s.svc.Create(s.ctx, ada)
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, grace)
	s.Require().NoError(err)

	byName, err := s.svc.List(s.ctx, "hopper", models.SortNone)
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
	s.Equal("Grace Hopper", byName[0].Name)

	byEmail, err := s.svc.List(s.ctx, "ADA@", models.SortNone)
	s.Require().NoError(err)
	s.Require().Len(byEmail, 1)
	s.Equal("Ada Lovelace", byEmail[0].Name)

	none, err := s.svc.List(s.ctx, "nobody", models.SortNone)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PatientServiceSuite) TestListSortKey() {
	zelda := models.Draft{
		Name: "Zelda Fitzgerald", Email: "zelda@example.com",
		Phone: "555-0102", Address: "7 Montgomery Ave", Gender: models.GenderFemale,
	}
	_, err := s.svc.Create(s.ctx, zelda)
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)

	inserted, err := s.svc.List(s.ctx, "", models.SortNone)
	s.Require().NoError(err)
	s.Require().Len(inserted, 2)
	s.Equal("Zelda Fitzgerald", inserted[0].Name, "default is insertion order")

	byName, err := s.svc.List(s.ctx, "", models.SortName)
	s.Require().NoError(err)
	s.Require().Len(byName, 2)
	s.Equal("Ada Lovelace", byName[0].Name)

	// Sorting is a view concern: the stored order is untouched.
	inserted, err = s.svc.List(s.ctx, "", models.SortNone)
	s.Require().NoError(err)
	s.Equal("Zelda Fitzgerald", inserted[0].Name)

	_, err = s.svc.List(s.ctx, "", models.SortKey("age"))
	s.Require().True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))
}

func (s *PatientServiceSuite) TestWatchDeliversCommitsInOrder() {
	var ops []Op
	cancel := s.svc.Watch(func(c Change) { ops = append(ops, c.Op) })
	defer cancel()

	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	_, err = s.svc.Update(s.ctx, created.ID, validDraft())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.ctx, created.ID))

	s.Equal([]Op{OpCreated, OpUpdated, OpDeleted}, ops)
}

func (s *PatientServiceSuite) TestWatchNotNotifiedOnFailure() {
	notified := 0
	cancel := s.svc.Watch(func(Change) { notified++ })
	defer cancel()

	_, err := s.svc.Create(s.ctx, models.Draft{Name: "X"})
	s.Require().Error(err)
	s.Zero(notified)
}

func (s *PatientServiceSuite) TestDeletedChangeCarriesFinalSnapshot() {
	var last Change
	cancel := s.svc.Watch(func(c Change) { last = c })
	defer cancel()

	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.ctx, created.ID))

	s.Equal(OpDeleted, last.Op)
	s.Equal(created.Name, last.Patient.Name)
}

func (s *PatientServiceSuite) TestMutationsEmitAuditEvents() {
	created, err := s.svc.Create(s.ctx, validDraft())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.ctx, created.ID))

	events, err := s.audit.ListBySubject(s.ctx, created.ID.String())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.False(events[0].At.IsZero())
}

func (s *PatientServiceSuite) TestClockOptionPinsTimestamps() {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := New(store.NewInMemory(), WithClock(func() time.Time { return fixed }))

	created, err := svc.Create(context.Background(), validDraft())
	s.Require().NoError(err)
	s.Equal(fixed, created.CreatedAt)
	s.Equal(fixed, created.UpdatedAt)
}
