package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of one provider-issued token's validity
// window. It outlives the token itself: revocation sets ExpiresAt to the
// current time without deleting the row, so a still-signed token referencing
// the session is refused on its next use.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	JWTID     string    `json:"jwt_id" db:"jwt_id"` // Supabase session_id claim, unique
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// NewSession creates a new Session instance for an already-provisioned user
func NewSession(userID, jwtID string, expiresAt time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		JWTID:     jwtID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

// Active reports whether the session is valid at the given instant.
// Expiry is exclusive: a session revoked "now" is already inactive.
func (s *Session) Active(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
