package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	authmodels "clinicdesk/internal/auth/models"
	authservice "clinicdesk/internal/auth/service"
	"clinicdesk/internal/auth/store/session"
	"clinicdesk/internal/auth/store/user"
	clinicservice "clinicdesk/internal/clinic/service"
	clinicstore "clinicdesk/internal/clinic/store"
	"clinicdesk/internal/jwtoken"
	patientservice "clinicdesk/internal/patient/service"
	patientstore "clinicdesk/internal/patient/store"
	"clinicdesk/internal/platform/config"
	"clinicdesk/internal/platform/httpserver"
	"clinicdesk/internal/platform/logger"
	"clinicdesk/internal/platform/metrics"
	platformredis "clinicdesk/internal/platform/redis"
	httptransport "clinicdesk/internal/transport/http"
	auditpub "clinicdesk/pkg/platform/audit/publisher"
	auditmemory "clinicdesk/pkg/platform/audit/store/memory"
)

// main wires stores, services, and the HTTP router, then runs the server
// until a shutdown signal. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()
	ctx := context.Background()

	auditStore := auditmemory.NewInMemoryStore()
	var auditOpts []auditpub.Option
	if cfg.AuditBuffer > 0 {
		auditOpts = append(auditOpts, auditpub.WithAsyncBuffer(cfg.AuditBuffer))
	}
	publisher := auditpub.NewPublisher(auditStore, auditOpts...)
	defer publisher.Close()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var patients patientservice.Store = patientstore.NewInMemory()
	var settings clinicservice.Store = clinicstore.NewInMemory()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open postgres pool", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgPatients := patientstore.NewPostgres(db)
		if err := pgPatients.Migrate(ctx); err != nil {
			log.Error("failed to migrate patients", "error", err)
			os.Exit(1)
		}
		patients = pgPatients

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgSettings := clinicstore.NewPostgres(pool)
		if err := pgSettings.Migrate(ctx); err != nil {
			log.Error("failed to migrate settings", "error", err)
			os.Exit(1)
		}
		settings = pgSettings
	}

	var sessions authservice.SessionStore = session.NewInMemory()
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		sessions = session.NewRedis(redisClient.Client)
	}

	users := user.NewInMemory()
	if err := seedUsers(ctx, users); err != nil {
		log.Error("failed to seed users", "error", err)
		os.Exit(1)
	}

	tokens := jwtoken.NewService(cfg.JWTSigningKey, "clinicdesk", "clinicdesk")

	patientSvc := patientservice.New(patients,
		patientservice.WithLogger(log),
		patientservice.WithMetrics(m),
		patientservice.WithAuditPublisher(publisher),
	)
	settingsSvc := clinicservice.New(settings,
		clinicservice.WithLogger(log),
		clinicservice.WithMetrics(m),
		clinicservice.WithAuditPublisher(publisher),
	)
	authSvc := authservice.New(users, sessions, tokens, cfg.SessionTTL,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditPublisher(publisher),
	)
	// Settle the gate so the route guard stops answering 503.
	authSvc.Resolve(ctx)

	validator := httptransport.NewJWTAdapter(tokens)
	router := httptransport.NewRouter(log, m,
		httptransport.NewPatientHandler(patientSvc, log, validator, authSvc),
		httptransport.NewSettingsHandler(settingsSvc, log, validator, authSvc),
		httptransport.NewAuthHandler(authSvc, log, validator, authSvc),
		httptransport.NewHealthHandler(log, map[string]httptransport.HealthChecker{
			"patients": patientSvc,
			"settings": settingsSvc,
			"auth":     authSvc,
		}),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting clinicdesk", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// seedUsers provisions the bootstrap staff account. CLINICDESK_ADMIN_EMAIL
// and CLINICDESK_ADMIN_PASSWORD override the development defaults.
func seedUsers(ctx context.Context, users *user.InMemory) error {
	email := os.Getenv("CLINICDESK_ADMIN_EMAIL")
	if email == "" {
		email = "admin@clinicdesk.local"
	}
	password := os.Getenv("CLINICDESK_ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-now"
	}
	admin, err := authmodels.NewUser(email, "Administrator", password)
	if err != nil {
		return err
	}
	return users.Add(ctx, admin)
}
