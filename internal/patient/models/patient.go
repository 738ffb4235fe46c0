package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicdesk/pkg/validate"
)

type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderOther, GenderUnspecified:
		return true
	}
	return false
}

// BloodGroup drives presentation-only severity styling; it is not a domain
// invariant beyond membership in the fixed set.
type BloodGroup string

const (
	BloodAPos  BloodGroup = "A+"
	BloodANeg  BloodGroup = "A-"
	BloodBPos  BloodGroup = "B+"
	BloodBNeg  BloodGroup = "B-"
	BloodABPos BloodGroup = "AB+"
	BloodABNeg BloodGroup = "AB-"
	BloodOPos  BloodGroup = "O+"
	BloodONeg  BloodGroup = "O-"
)

func (b BloodGroup) IsValid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// SortKey selects the order List returns records in. Empty keeps insertion
// order.
type SortKey string

const (
	SortNone SortKey = ""
	SortName SortKey = "name"
)

func (k SortKey) IsValid() bool { return k == SortNone || k == SortName }

// Patient is one clinical record.
//
// Invariants:
//   - ID is unique across the store and immutable after creation
//   - Name is never empty once validation has passed
//   - Allergies nil means "unknown"; an empty slice means "none recorded"
type Patient struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	DateOfBirth    *time.Time  `json:"date_of_birth,omitempty"`
	Gender         Gender      `json:"gender"`
	BloodGroup     *BloodGroup `json:"blood_group,omitempty"`
	Allergies      []string    `json:"allergies,omitempty"`
	MedicalHistory string      `json:"medical_history,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Draft is an unvalidated candidate record supplied to Create/Update.
type Draft struct {
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	DateOfBirth    *time.Time  `json:"date_of_birth,omitempty"`
	Gender         Gender      `json:"gender"`
	BloodGroup     *BloodGroup `json:"blood_group,omitempty"`
	Allergies      []string    `json:"allergies,omitempty"`
	MedicalHistory string      `json:"medical_history,omitempty"`
}

func (d *Draft) Normalize() {
	if d == nil {
		return
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	if d.Gender == "" {
		d.Gender = GenderUnspecified
	}
	for i := range d.Allergies {
		d.Allergies[i] = strings.TrimSpace(d.Allergies[i])
	}
}

// Validate aggregates every field failure; it never short-circuits so the
// caller can surface all violations at once.
func (d Draft) Validate() validate.Violations {
	var v validate.Violations
	v.Add("name", validate.Name(d.Name))
	v.Add("email", validate.Email(d.Email))
	v.Add("phone", validate.Phone(d.Phone))
	v.Add("address", validate.Address(d.Address))
	if !d.Gender.IsValid() {
		v.Add("gender", []validate.Kind{validate.InvalidFormat})
	}
	if d.BloodGroup != nil && !d.BloodGroup.IsValid() {
		v.Add("blood_group", []validate.Kind{validate.InvalidFormat})
	}
	return v
}

// Materialize builds the stored record for a validated draft. CreatedAt and
// UpdatedAt come from the caller so update can preserve the original
// creation time.
func (d Draft) Materialize(id uuid.UUID, createdAt, updatedAt time.Time) Patient {
	return Patient{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Address:        d.Address,
		DateOfBirth:    d.DateOfBirth,
		Gender:         d.Gender,
		BloodGroup:     d.BloodGroup,
		Allergies:      d.Allergies,
		MedicalHistory: d.MedicalHistory,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}
