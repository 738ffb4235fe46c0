package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID    string
	SessionID string
}

// SessionChecker lets the guard ask the auth gate about live state: whether
// resolution is still in flight and whether the presented session has been
// revoked since its token was minted.
type SessionChecker interface {
	Resolving() bool
	SessionActive(ctx context.Context, sessionID string) bool
}

// Context keys for storing authenticated user information.
type contextKeyUserID struct{}
type contextKeySessionID struct{}

var (
	ContextKeyUserID    = contextKeyUserID{}
	ContextKeySessionID = contextKeySessionID{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	sessionID, ok := ctx.Value(ContextKeySessionID).(string)
	if !ok {
		return ""
	}
	return sessionID
}

// RequireAuth guards gated views. While the auth gate is still resolving it
// answers 503 with Retry-After so clients show a neutral waiting state
// instead of branching on an unsettled session. Once resolved, requests
// without a valid live session get 401 - or, for browser navigations, a
// non-cacheable redirect to the login entry point so the denied attempt is
// not retained in history.
func RequireAuth(validator JWTValidator, checker SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if checker != nil && checker.Resolving() {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusServiceUnavailable, "resolving", "Session resolution in progress")
				return
			}

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			after, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				deny(w, r)
				return
			}

			claims, err := validator.ValidateToken(after)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				deny(w, r)
				return
			}

			if checker != nil && !checker.SessionActive(ctx, claims.SessionID) {
				logger.WarnContext(ctx, "unauthorized access - session revoked",
					"session_id", claims.SessionID,
					"request_id", GetRequestID(ctx),
				)
				deny(w, r)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeySessionID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		// Full navigation replace: See Other prevents the denied attempt from
		// being re-submittable from history.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing, invalid, or revoked session")
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}
