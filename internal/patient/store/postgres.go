package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clinicdesk/internal/patient/models"
	"clinicdesk/pkg/platform/sentinel"
)

// Postgres implements the patient store contract on database/sql + lib/pq.
// A BIGSERIAL position column preserves insertion order across restarts;
// Replace never touches it, so records keep their position.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the patients table. Idempotent.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS patients (
			id UUID PRIMARY KEY,
			position BIGSERIAL NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			address TEXT NOT NULL,
			date_of_birth DATE,
			gender TEXT NOT NULL,
			blood_group TEXT,
			allergies TEXT[],
			medical_history TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate patients: %w", err)
	}
	return nil
}

func (s *Postgres) Insert(ctx context.Context, p models.Patient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients
			(id, name, email, phone, address, date_of_birth, gender,
			 blood_group, allergies, medical_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.Email, p.Phone, p.Address, p.DateOfBirth,
		string(p.Gender), bloodGroupParam(p.BloodGroup),
		allergiesParam(p.Allergies), p.MedicalHistory, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, date_of_birth, gender,
		       blood_group, allergies, medical_history, created_at, updated_at
		FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (s *Postgres) Replace(ctx context.Context, p models.Patient) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE patients SET
			name = $2, email = $3, phone = $4, address = $5,
			date_of_birth = $6, gender = $7, blood_group = $8,
			allergies = $9, medical_history = $10, updated_at = $11
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.Address, p.DateOfBirth,
		string(p.Gender), bloodGroupParam(p.BloodGroup),
		allergiesParam(p.Allergies), p.MedicalHistory, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("replace patient: %w", err)
	}
	return requireOneRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return requireOneRow(res)
}

func (s *Postgres) List(ctx context.Context) ([]models.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, date_of_birth, gender,
		       blood_group, allergies, medical_history, created_at, updated_at
		FROM patients ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (models.Patient, error) {
	var (
		p          models.Patient
		gender     string
		bloodGroup sql.NullString
		dob        sql.NullTime
		allergies  pq.StringArray
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &dob,
		&gender, &bloodGroup, &allergies, &p.MedicalHistory,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Patient{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Patient{}, fmt.Errorf("scan patient: %w", err)
	}
	p.Gender = models.Gender(gender)
	if bloodGroup.Valid {
		bg := models.BloodGroup(bloodGroup.String)
		p.BloodGroup = &bg
	}
	if dob.Valid {
		d := dob.Time
		p.DateOfBirth = &d
	}
	if allergies != nil {
		p.Allergies = []string(allergies)
	}
	return p, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func bloodGroupParam(bg *models.BloodGroup) any {
	if bg == nil {
		return nil
	}
	return string(*bg)
}

func allergiesParam(a []string) any {
	if a == nil {
		return nil
	}
	return pq.Array(a)
}
