// Package audit records who changed which clinical record, when. Every
// committed mutation and every auth transition emits exactly one event;
// failed operations emit none.
package audit

import (
	"context"
	"time"
)

// Action names the audited operation.
type Action string

const (
	ActionPatientCreated  Action = "patient.created"
	ActionPatientUpdated  Action = "patient.updated"
	ActionPatientDeleted  Action = "patient.deleted"
	ActionSettingsUpdated Action = "settings.updated"
	ActionLogin           Action = "auth.login"
	ActionLoginFailed     Action = "auth.login_failed"
	ActionLogout          Action = "auth.logout"
)

// Event is one audit trail entry. Actor is the authenticated user id (empty
// for anonymous failures), Subject the affected record id.
type Event struct {
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
