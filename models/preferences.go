package models

import (
	"time"

	"github.com/google/uuid"
)

// Preferences holds per-user settings. A row is created automatically with
// the configured defaults when the user is first provisioned.
type Preferences struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Timezone     string     `json:"timezone" db:"timezone"`
	UnitSystem   UnitSystem `json:"unit_system" db:"unit_system"`
	VoiceEnabled bool       `json:"voice_enabled" db:"voice_enabled"`
	TTSVoice     *string    `json:"tts_voice,omitempty" db:"tts_voice"`
	Language     string     `json:"language" db:"language"`
	NotifPush    bool       `json:"notif_push" db:"notif_push"`
	NotifEmail   bool       `json:"notif_email" db:"notif_email"`
	NotifSMS     bool       `json:"notif_sms" db:"notif_sms"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Preferences model
func (Preferences) TableName() string {
	return "preferences"
}

// PreferenceDefaults are the values applied to the Preferences row created
// alongside a new user. Fixed at startup from configuration.
type PreferenceDefaults struct {
	Timezone     string
	UnitSystem   UnitSystem
	VoiceEnabled bool
	Language     string
	NotifPush    bool
	NotifEmail   bool
	NotifSMS     bool
}

// NewPreferences creates a Preferences row for a user from the defaults
func NewPreferences(userID string, defaults PreferenceDefaults) *Preferences {
	now := time.Now()
	return &Preferences{
		ID:           uuid.New(),
		UserID:       userID,
		Timezone:     defaults.Timezone,
		UnitSystem:   defaults.UnitSystem,
		VoiceEnabled: defaults.VoiceEnabled,
		Language:     defaults.Language,
		NotifPush:    defaults.NotifPush,
		NotifEmail:   defaults.NotifEmail,
		NotifSMS:     defaults.NotifSMS,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PreferencesPatch carries the fields supplied by a preferences update.
// Nil means "leave unchanged".
type PreferencesPatch struct {
	Timezone     *string
	UnitSystem   *UnitSystem
	VoiceEnabled *bool
	TTSVoice     *string
	Language     *string
	NotifPush    *bool
	NotifEmail   *bool
	NotifSMS     *bool
}
