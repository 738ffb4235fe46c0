package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinicdesk/internal/clinic/models"
	"clinicdesk/pkg/platform/sentinel"
)

// Postgres keeps the settings singleton as one row keyed by a fixed id.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the clinic_settings table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clinic_settings (
			id         SMALLINT PRIMARY KEY CHECK (id = 1),
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			phone      TEXT NOT NULL,
			address    TEXT NOT NULL,
			website    TEXT,
			logo       TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate clinic_settings: %w", err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context) (models.Settings, error) {
	var out models.Settings
	err := s.pool.QueryRow(ctx, `
		SELECT name, email, phone, address, website, logo, updated_at
		FROM clinic_settings WHERE id = 1`).
		Scan(&out.Name, &out.Email, &out.Phone, &out.Address,
			&out.Website, &out.Logo, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settings{}, sentinel.ErrNotFound
		}
		return models.Settings{}, fmt.Errorf("load clinic settings: %w", err)
	}
	return out, nil
}

func (s *Postgres) Save(ctx context.Context, settings models.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clinic_settings (id, name, email, phone, address, website, logo, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			website = EXCLUDED.website,
			logo = EXCLUDED.logo,
			updated_at = EXCLUDED.updated_at`,
		settings.Name, settings.Email, settings.Phone, settings.Address,
		settings.Website, settings.Logo, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save clinic settings: %w", err)
	}
	return nil
}

func (s *Postgres) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}
