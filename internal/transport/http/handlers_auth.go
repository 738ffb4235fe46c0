package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authModel "clinicdesk/internal/auth/models"
	"clinicdesk/internal/platform/middleware"
	"clinicdesk/internal/transport/http/shared"
	dErrors "clinicdesk/pkg/domain-errors"
)

// AuthService defines the gate operations the transport needs.
type AuthService interface {
	Login(ctx context.Context, creds authModel.Credentials, userAgent string) (authModel.Session, string, error)
	Logout(ctx context.Context) authModel.Session
	CurrentSession() authModel.Session
}

// loginResponse carries the settled session plus the bearer token the
// client presents on gated requests.
type loginResponse struct {
	Session     authModel.Session `json:"session"`
	AccessToken string            `json:"access_token"`
}

// AuthHandler handles login, logout, and the session snapshot.
type AuthHandler struct {
	auth      AuthService
	logger    *slog.Logger
	validator middleware.JWTValidator
	checker   middleware.SessionChecker
}

func NewAuthHandler(
	auth AuthService,
	logger *slog.Logger,
	validator middleware.JWTValidator,
	checker middleware.SessionChecker) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		logger:    logger,
		validator: validator,
		checker:   checker,
	}
}

// Register registers the auth routes with the chi router. Login and the
// session snapshot are public; logout requires a live session.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Get("/auth/session", h.handleSession)
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireAuth(h.validator, h.checker, h.logger))
		gr.Post("/auth/logout", h.handleLogout)
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var creds authModel.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	session, accessToken, err := h.auth.Login(ctx, creds, r.UserAgent())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.WarnContext(ctx, "login rejected",
				"request_id", requestID,
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Session:     session,
		AccessToken: accessToken,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := h.auth.Logout(r.Context())
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.auth.CurrentSession())
}
