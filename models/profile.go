package models

import (
	"time"

	"github.com/google/uuid"
)

// Sex is the biological sex recorded on a profile
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ExperienceLevel represents training experience
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// GoalType represents the user's primary training goal
type GoalType string

const (
	GoalWeightLoss     GoalType = "weight_loss"
	GoalMuscleGain     GoalType = "muscle_gain"
	GoalEndurance      GoalType = "endurance"
	GoalGeneralFitness GoalType = "general_fitness"
)

// UnitSystem selects measurement units for display
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// Profile holds the per-user coaching profile. Firstname and lastname are
// required at creation; everything else is optional and updated field by
// field.
type Profile struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          string           `json:"user_id" db:"user_id"`
	Firstname       string           `json:"firstname" db:"firstname"`
	Lastname        string           `json:"lastname" db:"lastname"`
	Sex             *Sex             `json:"sex,omitempty" db:"sex"`
	HeightCm        *float64         `json:"height_cm,omitempty" db:"height_cm"`
	WeightKg        *float64         `json:"weight_kg,omitempty" db:"weight_kg"`
	ExperienceLevel *ExperienceLevel `json:"experience_level,omitempty" db:"experience_level"`
	HealthNotes     *string          `json:"health_notes,omitempty" db:"health_notes"`
	GoalType        *GoalType        `json:"goal_type,omitempty" db:"goal_type"`
	UnitSystem      *UnitSystem      `json:"unit_system,omitempty" db:"unit_system"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// ProfilePatch carries the fields supplied by a profile write. Nil means
// "leave unchanged"; a create additionally requires Firstname and Lastname.
type ProfilePatch struct {
	Firstname       *string
	Lastname        *string
	Sex             *Sex
	HeightCm        *float64
	WeightKg        *float64
	ExperienceLevel *ExperienceLevel
	HealthNotes     *string
	GoalType        *GoalType
	UnitSystem      *UnitSystem
}

// NewProfile creates a Profile from a patch, applying the required name
// fields and any supplied optional ones.
func NewProfile(userID string, patch ProfilePatch) *Profile {
	now := time.Now()
	p := &Profile{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if patch.Firstname != nil {
		p.Firstname = *patch.Firstname
	}
	if patch.Lastname != nil {
		p.Lastname = *patch.Lastname
	}
	p.Sex = patch.Sex
	p.HeightCm = patch.HeightCm
	p.WeightKg = patch.WeightKg
	p.ExperienceLevel = patch.ExperienceLevel
	p.HealthNotes = patch.HealthNotes
	p.GoalType = patch.GoalType
	p.UnitSystem = patch.UnitSystem
	return p
}
