package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the kind of device a push token belongs to
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Valid reports whether the platform is one of the known values
func (p Platform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// Device represents a push-notification endpoint. DeviceID is the
// client-reported hardware identifier and is unique across all users:
// re-registering a known device moves it to the registering user, refreshes
// the push token and clears any revocation.
type Device struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Platform   Platform   `json:"platform" db:"platform"`
	DeviceID   string     `json:"device_id" db:"device_id"`
	PushToken  *string    `json:"push_token,omitempty" db:"push_token"`
	LastSeenAt time.Time  `json:"last_seen_at" db:"last_seen_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Device model
func (Device) TableName() string {
	return "devices"
}

// NewDevice creates a new Device instance
func NewDevice(userID string, platform Platform, deviceID string, pushToken *string) *Device {
	now := time.Now()
	return &Device{
		ID:         uuid.New(),
		UserID:     userID,
		Platform:   platform,
		DeviceID:   deviceID,
		PushToken:  pushToken,
		LastSeenAt: now,
		CreatedAt:  now,
	}
}

// Revoked reports whether the device has been revoked
func (d *Device) Revoked() bool {
	return d.RevokedAt != nil
}
