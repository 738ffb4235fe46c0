package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clinicdesk/pkg/validate"
)

// User is a staff account allowed through the gate.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordDigest []byte    `json:"-"`
}

// NewUser builds a user with a bcrypt digest of the given password.
func NewUser(email, name, password string) (User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:             uuid.New(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Name:           name,
		PasswordDigest: digest,
	}, nil
}

// CheckPassword compares in constant time.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordDigest, []byte(password)) == nil
}

// Credentials is a login submission.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Credentials) Normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

func (c Credentials) Validate() validate.Violations {
	v := validate.Violations{}
	v.Add("email", validate.Email(c.Email))
	if len(c.Password) < 8 {
		v.Add("password", []validate.Kind{validate.TooShort})
	}
	return v
}

// State is the gate's position in its lifecycle.
type State string

const (
	// StateResolving means session resolution is in flight; consumers must
	// not branch on User until it settles.
	StateResolving     State = "resolving"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Session is a read-only snapshot of the gate. User is set only when
// authenticated; Loading mirrors StateResolving.
type Session struct {
	State   State `json:"state"`
	User    *User `json:"user,omitempty"`
	Loading bool  `json:"loading"`
}

// SessionEntry is the persisted record backing an issued access token.
type SessionEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}
