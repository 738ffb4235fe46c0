package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clinicdesk/internal/auth/device"
	"clinicdesk/internal/auth/models"
	"clinicdesk/internal/jwtoken"
	"clinicdesk/internal/platform/metrics"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/platform/watch"
	domainerrors "clinicdesk/pkg/domain-errors"
	audit "clinicdesk/pkg/platform/audit"
)

// UserStore looks up staff accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Health(ctx context.Context) error
}

// SessionStore persists the entries backing issued access tokens.
type SessionStore interface {
	Save(ctx context.Context, entry models.SessionEntry) error
	Revoke(ctx context.Context, sessionID string) error
	Active(ctx context.Context, sessionID string) (bool, error)
	Health(ctx context.Context) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the auth gate. It starts Resolving and settles to Anonymous or
// Authenticated; Login and Logout drive the transitions. In-flight logins
// carry a monotonically increasing request token so only the most recently
// initiated call's completion commits; stale completions are discarded.
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     *jwtoken.Service
	sessionTTL time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
	now     func() time.Time

	hub watch.Hub[models.Session]

	issued atomic.Uint64

	// commitMu orders settled transitions and guards token bookkeeping.
	commitMu      sync.Mutex
	lastCommitted uint64

	stateMu   sync.RWMutex
	state     models.State
	user      *models.User
	sessionID string
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

func New(users UserStore, sessions SessionStore, tokens *jwtoken.Service, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		tracer:     otel.Tracer("clinicdesk/auth"),
		now:        time.Now,
		state:      models.StateResolving,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch subscribes fn to settled transitions; entering Resolving is not a
// settled state and does not notify. The returned cancel is idempotent.
func (s *Service) Watch(fn func(models.Session)) (cancel func()) {
	return s.hub.Subscribe(fn)
}

// Resolve settles the initial Resolving state to Anonymous. No identity
// survives a restart, so bootstrap resolution always lands there.
func (s *Service) Resolve(ctx context.Context) models.Session {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if s.currentState() == models.StateResolving {
		s.settle(models.StateAnonymous, nil, "")
	}
	return s.CurrentSession()
}

// CurrentSession returns a read-only snapshot of the gate.
func (s *Service) CurrentSession() models.Session {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	sess := models.Session{
		State:   s.state,
		Loading: s.state == models.StateResolving,
	}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

// Login verifies the credentials and, on success, persists a session entry
// and issues an access token. The gate re-enters Resolving while the call
// is in flight; a call superseded by a later-initiated one resolves as
// CodeConflict without touching the settled state. Failed credentials
// settle the gate Anonymous and report CodeUnauthorized.
func (s *Service) Login(ctx context.Context, creds models.Credentials, userAgent string) (models.Session, string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	creds.Normalize()
	if viol := creds.Validate(); !viol.OK() {
		if s.metrics != nil {
			s.metrics.ValidationFailures.WithLabelValues("credentials").Inc()
		}
		return s.CurrentSession(), "", viol.Err()
	}

	token := s.issued.Add(1)
	s.enterResolving()

	user, verifyErr := s.verify(ctx, creds)

	var entry models.SessionEntry
	var accessToken string
	if verifyErr == nil {
		now := s.now()
		entry = models.SessionEntry{
			ID:        uuid.New(),
			UserID:    user.ID,
			Device:    device.ParseUserAgent(userAgent),
			CreatedAt: now,
			ExpiresAt: now.Add(s.sessionTTL),
		}
		if err := s.sessions.Save(ctx, entry); err != nil {
			verifyErr = domainerrors.Wrap(err, domainerrors.CodeUnavailable, "failed to persist session")
		}
	}
	if verifyErr == nil {
		signed, err := s.tokens.GenerateAccessToken(user.ID, entry.ID, s.sessionTTL)
		if err != nil {
			verifyErr = domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue access token")
		}
		accessToken = signed
	}

	s.commitMu.Lock()
	if token < s.lastCommitted {
		s.commitMu.Unlock()
		// A later-initiated login already settled; this completion must
		// leave no trace, including the session entry it saved.
		if verifyErr == nil {
			s.revoke(ctx, entry.ID.String())
		}
		return s.CurrentSession(), "", domainerrors.New(domainerrors.CodeConflict,
			"login superseded by a later one")
	}
	s.lastCommitted = token

	s.stateMu.RLock()
	displaced := s.sessionID
	s.stateMu.RUnlock()

	if verifyErr != nil {
		s.settle(models.StateAnonymous, nil, "")
		s.commitMu.Unlock()
		// Whatever session was live is torn down with the settled state; its
		// token must stop authenticating requests.
		s.revoke(ctx, displaced)
		s.logAudit(ctx, audit.ActionLoginFailed, creds.Email)
		if s.metrics != nil {
			s.metrics.LoginFailures.Inc()
		}
		return s.CurrentSession(), "", verifyErr
	}

	// The snapshot handed to consumers never carries the digest.
	user.PasswordDigest = nil
	s.settle(models.StateAuthenticated, &user, entry.ID.String())
	s.commitMu.Unlock()

	if displaced != entry.ID.String() {
		s.revoke(ctx, displaced)
	}

	s.logAudit(ctx, audit.ActionLogin, user.ID.String())
	if s.metrics != nil {
		s.metrics.Logins.Inc()
	}
	return s.CurrentSession(), accessToken, nil
}

// Logout revokes the live session entry and settles Anonymous. It also
// supersedes any login still in flight; a logout itself superseded by a
// later-initiated call leaves the settled state alone.
func (s *Service) Logout(ctx context.Context) models.Session {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	token := s.issued.Add(1)

	s.commitMu.Lock()
	if token < s.lastCommitted {
		s.commitMu.Unlock()
		return s.CurrentSession()
	}
	s.lastCommitted = token

	s.stateMu.RLock()
	sessionID := s.sessionID
	actor := ""
	if s.user != nil {
		actor = s.user.ID.String()
	}
	s.stateMu.RUnlock()

	s.settle(models.StateAnonymous, nil, "")
	s.commitMu.Unlock()

	if sessionID != "" {
		s.revoke(ctx, sessionID)
		s.logAudit(ctx, audit.ActionLogout, actor)
	}
	return s.CurrentSession()
}

// Resolving reports whether session resolution is in flight.
func (s *Service) Resolving() bool {
	return s.currentState() == models.StateResolving
}

// SessionActive reports whether the presented session is still live. Store
// errors deny access rather than letting a revoked session through.
func (s *Service) SessionActive(ctx context.Context, sessionID string) bool {
	active, err := s.sessions.Active(ctx, sessionID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "session liveness check failed", "error", err)
		}
		return false
	}
	return active
}

// Health reports whether the backing stores are reachable.
func (s *Service) Health(ctx context.Context) error {
	if err := s.users.Health(ctx); err != nil {
		return err
	}
	return s.sessions.Health(ctx)
}

func (s *Service) verify(ctx context.Context, creds models.Credentials) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil {
		// Burn a compare anyway so unknown emails cost the same as bad
		// passwords.
		models.User{PasswordDigest: []byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalid")}.CheckPassword(creds.Password)
		return models.User{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.CheckPassword(creds.Password) {
		return models.User{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}

// revoke tears down a session entry best-effort; a failure is logged, not
// surfaced, since the settled state has already moved on.
func (s *Service) revoke(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to revoke session",
			"session_id", sessionID,
			"error", err,
		)
	}
}

func (s *Service) enterResolving() {
	s.stateMu.Lock()
	s.state = models.StateResolving
	s.stateMu.Unlock()
}

// settle commits a terminal state and notifies subscribers. Callers hold
// commitMu.
func (s *Service) settle(state models.State, user *models.User, sessionID string) {
	s.stateMu.Lock()
	s.state = state
	s.user = user
	s.sessionID = sessionID
	s.stateMu.Unlock()
	s.hub.Notify(s.CurrentSession())
}

func (s *Service) currentState() models.State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
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
		Actor:     subject,
		Action:    action,
		Subject:   subject,
		RequestID: requestID,
	})
}
