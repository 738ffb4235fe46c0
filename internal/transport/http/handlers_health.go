package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/transport/http/shared"
)

// HealthChecker reports whether one backend is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler probes every registered backend concurrently and reports
// per-component status.
type HealthHandler struct {
	logger *slog.Logger
	checks map[string]HealthChecker
}

func NewHealthHandler(logger *slog.Logger, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var mu sync.Mutex
	components := make(map[string]string, len(h.checks))

	// Probes run to completion even when one fails, so the per-component
	// report stays accurate.
	var g errgroup.Group
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			err := check.Health(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				components[name] = err.Error()
				return err
			}
			components[name] = "ok"
			return nil
		})
	}

	status := http.StatusOK
	resp := healthResponse{Status: "ok", Components: components}
	if err := g.Wait(); err != nil {
		h.logger.WarnContext(ctx, "health check failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}
	shared.WriteJSON(w, status, resp)
}
