package models

import (
	"strings"
	"time"

	"clinicdesk/pkg/validate"
)

// Settings is the clinic-wide singleton record. Website and Logo are
// optional: nil means never set, an empty string is an explicit "none".
type Settings struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Website *string `json:"website,omitempty"`
	Logo    *string `json:"logo,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings seeds a fresh deployment before the first update.
func DefaultSettings() Settings {
	return Settings{
		Name:    "New Clinic",
		Email:   "contact@example.com",
		Phone:   "000-00000",
		Address: "Address not set",
	}
}

// Draft is an unvalidated settings submission.
type Draft struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Website *string `json:"website,omitempty"`
	Logo    *string `json:"logo,omitempty"`
}

func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	if d.Website != nil {
		trimmed := strings.TrimSpace(*d.Website)
		d.Website = &trimmed
	}
	if d.Logo != nil {
		trimmed := strings.TrimSpace(*d.Logo)
		d.Logo = &trimmed
	}
}

// Validate checks every field and reports the full set of violations.
func (d Draft) Validate() validate.Violations {
	v := validate.Violations{}
	v.Add("name", validate.Name(d.Name))
	v.Add("email", validate.Email(d.Email))
	v.Add("phone", validate.Phone(d.Phone))
	v.Add("address", validate.Address(d.Address))
	if d.Website != nil {
		v.Add("website", validate.URL(*d.Website))
	}
	if d.Logo != nil {
		v.Add("logo", validate.URL(*d.Logo))
	}
	return v
}

// Materialize builds the full record from a validated draft.
func (d Draft) Materialize(updatedAt time.Time) Settings {
	return Settings{
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Address:   d.Address,
		Website:   d.Website,
		Logo:      d.Logo,
		UpdatedAt: updatedAt,
	}
}
