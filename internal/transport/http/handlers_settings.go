package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	clinicModel "clinicdesk/internal/clinic/models"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/transport/http/shared"
	dErrors "clinicdesk/pkg/domain-errors"
)

// SettingsService defines the clinic settings operations the transport needs.
type SettingsService interface {
	Get(ctx context.Context) (clinicModel.Settings, error)
	Update(ctx context.Context, draft clinicModel.Draft) (clinicModel.Settings, error)
}

// SettingsHandler handles the clinic settings singleton endpoints, behind
// the auth gate.
type SettingsHandler struct {
	settings  SettingsService
	logger    *slog.Logger
	validator middleware.JWTValidator
	checker   middleware.SessionChecker
}

func NewSettingsHandler(
	settings SettingsService,
	logger *slog.Logger,
	validator middleware.JWTValidator,
	checker middleware.SessionChecker) *SettingsHandler {
	return &SettingsHandler{
		settings:  settings,
		logger:    logger,
		validator: validator,
		checker:   checker,
	}
}

// Register registers the settings routes with the chi router.
func (h *SettingsHandler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAuth(h.validator, h.checker, h.logger))
		gr.Get("/settings", h.handleGet)
		gr.Put("/settings", h.handleUpdate)
	})
}

func (h *SettingsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.settings.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load settings",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var draft clinicModel.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.logger.WarnContext(ctx, "invalid update settings request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	settings, err := h.settings.Update(ctx, draft)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) && !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "failed to update settings",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}
