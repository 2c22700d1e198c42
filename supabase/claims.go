package supabase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claim set of a Supabase-issued access token
type Claims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email,omitempty"`
	Phone        string                 `json:"phone,omitempty"`
	Role         string                 `json:"role,omitempty"`
	SessionID    string                 `json:"session_id,omitempty"`
	AAL          string                 `json:"aal,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Expiry returns the expiry claim and whether one is present
func (c *Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// hasAudience checks if the audience claim contains the expected value
func (c *Claims) hasAudience(expected string) bool {
	for _, aud := range c.Audience {
		if aud == expected {
			return true
		}
	}
	return false
}
