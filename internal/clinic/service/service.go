package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clinicdesk/internal/clinic/models"
	"clinicdesk/internal/platform/metrics"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/platform/watch"
	domainerrors "clinicdesk/pkg/domain-errors"
	audit "clinicdesk/pkg/platform/audit"
	"clinicdesk/pkg/platform/sentinel"
)

// Store persists the settings singleton.
type Store interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
	Health(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the settings singleton. Reads are served from the committed
// in-process snapshot; updates persist through the store and commit with a
// last-initiated-wins policy: every Update draws a monotonically increasing
// request token at entry, and a call that is no longer the newest-initiated
// one when its write would commit is discarded, without its value outliving
// the call in the backing store.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
	now     func() time.Time

	hub watch.Hub[models.Settings]

	issued atomic.Uint64

	// commitMu serializes store writes with snapshot commits, so a stale
	// write can never land after the update that superseded it.
	commitMu sync.Mutex

	stateMu sync.RWMutex
	current models.Settings
	loaded  bool
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
		tracer: otel.Tracer("clinicdesk/clinic"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch subscribes fn to committed settings; the returned cancel is idempotent.
func (s *Service) Watch(fn func(models.Settings)) (cancel func()) {
	return s.hub.Subscribe(fn)
}

// Get returns the committed settings, loading from the store on first use.
// A store that has never been written yields the defaults.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return models.Settings{}, err
	}
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.current, nil
}

// Update validates the draft, persists it, and commits it as the new
// singleton. A call superseded by a later-initiated one resolves as
// CodeConflict and leaves no trace; on any failure the prior value stays
// intact. Observers only ever see whole committed records.
func (s *Service) Update(ctx context.Context, draft models.Draft) (models.Settings, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.UpdateSettings")
	defer span.End()

	draft.Normalize()
	if viol := draft.Validate(); !viol.OK() {
		if s.metrics != nil {
			s.metrics.ValidationFailures.WithLabelValues("settings").Inc()
		}
		return models.Settings{}, viol.Err()
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Settings{}, err
	}

	token := s.issued.Add(1)
	candidate := draft.Materialize(s.now())

	s.commitMu.Lock()
	if token < s.issued.Load() {
		s.commitMu.Unlock()
		return models.Settings{}, s.superseded()
	}
	if err := s.store.Save(ctx, candidate); err != nil {
		s.commitMu.Unlock()
		return models.Settings{}, s.storeErr(err, "failed to save settings")
	}
	if token < s.issued.Load() {
		// A later update was initiated while the write was in flight. Its
		// value must win, so put the committed record back before discarding
		// this one; the queued write then lands on top of it.
		s.stateMu.RLock()
		committed := s.current
		s.stateMu.RUnlock()
		if err := s.store.Save(ctx, committed); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to restore committed settings", "error", err)
		}
		s.commitMu.Unlock()
		return models.Settings{}, s.superseded()
	}
	s.stateMu.Lock()
	s.current = candidate
	s.stateMu.Unlock()
	s.hub.Notify(candidate)
	s.commitMu.Unlock()

	s.logAudit(ctx, audit.ActionSettingsUpdated)
	if s.metrics != nil {
		s.metrics.SettingsUpdated.Inc()
	}
	return candidate, nil
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.stateMu.RLock()
	loaded := s.loaded
	s.stateMu.RUnlock()
	if loaded {
		return nil
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	s.stateMu.RLock()
	loaded = s.loaded
	s.stateMu.RUnlock()
	if loaded {
		return nil
	}

	initial, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return s.storeErr(err, "failed to load settings")
		}
		initial = models.DefaultSettings()
	}
	s.stateMu.Lock()
	s.current = initial
	s.loaded = true
	s.stateMu.Unlock()
	return nil
}

func (s *Service) superseded() error {
	if s.metrics != nil {
		s.metrics.SettingsSuperseded.Inc()
	}
	return domainerrors.Wrap(sentinel.ErrSuperseded,
		domainerrors.CodeConflict, "settings update superseded by a later one")
}

func (s *Service) storeErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, msg)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, action audit.Action) {
	requestID := middleware.GetRequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
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
		Subject:   "clinic_settings",
		RequestID: requestID,
	})
}
