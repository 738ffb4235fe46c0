package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// DatabaseURL selects the postgres-backed stores when set; empty keeps
	// everything in memory.
	DatabaseURL string
	// RedisURL selects the redis session store when set.
	RedisURL string
	// SessionTTL bounds how long an authenticated session stays valid.
	SessionTTL time.Duration
	// AuditBuffer > 0 switches the audit publisher to async emission.
	AuditBuffer int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CLINICDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTTL := 12 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			sessionTTL = d
		}
	}

	auditBuffer := 0
	if os.Getenv("AUDIT_ASYNC") == "true" {
		auditBuffer = 256
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SessionTTL:    sessionTTL,
		AuditBuffer:   auditBuffer,
	}
}
