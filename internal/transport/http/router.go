package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinicdesk/internal/jwtoken"
	"clinicdesk/internal/platform/metrics"
	"clinicdesk/internal/platform/middleware"
)

// Registrar is anything that mounts routes on the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the shared middleware stack and mounts every handler.
// The metrics endpoint stays outside the gate so scrapes work during
// resolution.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if m != nil {
		r.Use(middleware.LatencyMiddleware(m))
	}

	for _, h := range handlers {
		h.Register(r)
	}

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// JWTAdapter bridges the token service to the middleware's validator
// contract.
type JWTAdapter struct {
	tokens *jwtoken.Service
}

func NewJWTAdapter(tokens *jwtoken.Service) *JWTAdapter {
	return &JWTAdapter{tokens: tokens}
}

func (a *JWTAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
	}, nil
}
