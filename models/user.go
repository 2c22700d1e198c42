package models

import (
	"time"
)

// User represents a locally provisioned account for a Supabase identity.
// The ID is the provider's subject claim; this service never generates
// user identifiers of its own.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance keyed by the provider subject
func NewUser(subject, email string, phone *string) *User {
	return &User{
		ID:        subject,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
}

// AuthenticatedUser is the principal attached to the request context after
// token validation and reconciliation succeed. Role always reflects the
// presented credential, not stored state.
type AuthenticatedUser struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	Phone     string                 `json:"phone,omitempty"`
	Role      string                 `json:"role,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// HasProfile reports the profile flag derived during reconciliation.
func (u *AuthenticatedUser) HasProfile() bool {
	if u.Metadata == nil {
		return false
	}
	has, ok := u.Metadata["hasProfile"].(bool)
	return ok && has
}
