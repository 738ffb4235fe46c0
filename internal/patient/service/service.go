package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clinicdesk/internal/patient/models"
	"clinicdesk/internal/platform/metrics"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/platform/watch"
	domainerrors "clinicdesk/pkg/domain-errors"
	audit "clinicdesk/pkg/platform/audit"
	"clinicdesk/pkg/platform/sentinel"
)

// Store is the persistence contract the service drives. Implementations
// must serialize their own writes; commit ordering across store+notify is
// the service's job.
type Store interface {
	Insert(ctx context.Context, p models.Patient) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Patient, error)
	Replace(ctx context.Context, p models.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Patient, error)
	Health(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Op labels a committed mutation for subscribers.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change is the snapshot delivered to subscribers after each commit.
// For OpDeleted, Patient holds the record as it was before removal.
type Change struct {
	Op      Op
	Patient models.Patient
}

// Service owns the patient collection: every read and mutation goes through
// it, and observers are notified synchronously after each commit, in commit
// order.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
	now     func() time.Time

	hub watch.Hub[Change]
	// commitMu spans mutation + notification so observers see commits in
	// the order they happened.
	commitMu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithClock overrides the timestamp source; tests use it to pin time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tracer: otel.Tracer("clinicdesk/patient"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch subscribes fn to committed changes; the returned cancel is idempotent.
func (s *Service) Watch(fn func(Change)) (cancel func()) {
	return s.hub.Subscribe(fn)
}

// List returns all patients, optionally restricted to records whose name or
// email contains query (case-insensitive). Records come back in insertion
// order unless a sort key is requested; an unknown key is rejected.
func (s *Service) List(ctx context.Context, query string, sortBy models.SortKey) ([]models.Patient, error) {
	if !sortBy.IsValid() {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown sort key")
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeErr(err, "failed to list patients")
	}
	out := all
	if query != "" {
		q := strings.ToLower(query)
		out = make([]models.Patient, 0, len(all))
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Name), q) ||
				strings.Contains(strings.ToLower(p.Email), q) {
				out = append(out, p)
			}
		}
	}
	if sortBy == models.SortName {
		sorted := make([]models.Patient, len(out))
		copy(sorted, out)
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		})
		out = sorted
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Patient{}, domainerrors.New(domainerrors.CodeNotFound, "patient not found")
		}
		return models.Patient{}, s.storeErr(err, "failed to load patient")
	}
	return p, nil
}

// Create validates the draft, assigns a fresh id, appends the record, and
// notifies subscribers. On validation failure the store is untouched and the
// error carries every violated field.
func (s *Service) Create(ctx context.Context, draft models.Draft) (models.Patient, error) {
	ctx, span := s.tracer.Start(ctx, "patient.Create")
	defer span.End()

	draft.Normalize()
	if viol := draft.Validate(); !viol.OK() {
		s.incValidationFailure()
		return models.Patient{}, viol.Err()
	}

	now := s.now()
	p := draft.Materialize(uuid.New(), now, now)

	s.commitMu.Lock()
	err := s.store.Insert(ctx, p)
	if err == nil {
		s.hub.Notify(Change{Op: OpCreated, Patient: p})
	}
	s.commitMu.Unlock()
	if err != nil {
		return models.Patient{}, s.storeErr(err, "failed to create patient")
	}

	s.logAudit(ctx, audit.ActionPatientCreated, p.ID.String())
	if s.metrics != nil {
		s.metrics.PatientsCreated.Inc()
	}
	return p, nil
}

// Update replaces the record at id with the validated draft, preserving its
// position and creation time. The store is unchanged on any failure.
func (s *Service) Update(ctx context.Context, id uuid.UUID, draft models.Draft) (models.Patient, error) {
	ctx, span := s.tracer.Start(ctx, "patient.Update")
	defer span.End()

	draft.Normalize()
	if viol := draft.Validate(); !viol.OK() {
		s.incValidationFailure()
		return models.Patient{}, viol.Err()
	}

	s.commitMu.Lock()
	existing, err := s.store.FindByID(ctx, id)
	if err == nil {
		updated := draft.Materialize(id, existing.CreatedAt, s.now())
		err = s.store.Replace(ctx, updated)
		if err == nil {
			s.hub.Notify(Change{Op: OpUpdated, Patient: updated})
			s.commitMu.Unlock()
			s.logAudit(ctx, audit.ActionPatientUpdated, id.String())
			if s.metrics != nil {
				s.metrics.PatientsUpdated.Inc()
			}
			return updated, nil
		}
	}
	s.commitMu.Unlock()

	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Patient{}, domainerrors.New(domainerrors.CodeNotFound, "patient not found")
	}
	return models.Patient{}, s.storeErr(err, "failed to update patient")
}

// Delete removes the record. Not idempotent: deleting an already-removed id
// reports not found.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "patient.Delete")
	defer span.End()

	s.commitMu.Lock()
	existing, err := s.store.FindByID(ctx, id)
	if err == nil {
		err = s.store.Delete(ctx, id)
		if err == nil {
			s.hub.Notify(Change{Op: OpDeleted, Patient: existing})
		}
	}
	s.commitMu.Unlock()

	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.New(domainerrors.CodeNotFound, "patient not found")
		}
		return s.storeErr(err, "failed to delete patient")
	}

	s.logAudit(ctx, audit.ActionPatientDeleted, id.String())
	if s.metrics != nil {
		s.metrics.PatientsDeleted.Inc()
	}
	return nil
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) storeErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, msg)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}

func (s *Service) incValidationFailure() {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues("patient").Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, subject string) {
	requestID := middleware.GetRequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"subject", subject,
			"request_id", requestID,
			"log_type", "audit",
		)
	}
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:     middleware.GetUserID(ctx),
		Action:    action,
		Subject:   subject,
		RequestID: requestID,
	})
}
