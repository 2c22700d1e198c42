package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
)

// ProfileRepository implements the repositories.ProfileRepository interface
type ProfileRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB, logger *zap.Logger) repositories.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

const profileColumns = `id, user_id, firstname, lastname, sex, height_cm, weight_kg,
		experience_level, health_notes, goal_type, unit_system, created_at, updated_at`

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, firstname, lastname, sex, height_cm, weight_kg,
			experience_level, health_notes, goal_type, unit_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Firstname,
		profile.Lastname,
		profile.Sex,
		profile.HeightCm,
		profile.WeightKg,
		profile.ExperienceLevel,
		profile.HealthNotes,
		profile.GoalType,
		profile.UnitSystem,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	r.logger.Debug("profile created", zap.String("user_id", profile.UserID))
	return nil
}

// GetByUserID retrieves a user's profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	executor := GetExecutor(ctx, r.db)
	profile := &models.Profile{}

	err := executor.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Firstname,
		&profile.Lastname,
		&profile.Sex,
		&profile.HeightCm,
		&profile.WeightKg,
		&profile.ExperienceLevel,
		&profile.HealthNotes,
		&profile.GoalType,
		&profile.UnitSystem,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Update applies only the supplied fields in a single statement. COALESCE
// keeps unsupplied columns unchanged, so there is no read-modify-write split.
func (r *ProfileRepository) Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET firstname = COALESCE($2, firstname),
		    lastname = COALESCE($3, lastname),
		    sex = COALESCE($4, sex),
		    height_cm = COALESCE($5, height_cm),
		    weight_kg = COALESCE($6, weight_kg),
		    experience_level = COALESCE($7, experience_level),
		    health_notes = COALESCE($8, health_notes),
		    goal_type = COALESCE($9, goal_type),
		    unit_system = COALESCE($10, unit_system),
		    updated_at = $11
		WHERE user_id = $1
		RETURNING ` + profileColumns

	executor := GetExecutor(ctx, r.db)
	profile := &models.Profile{}

	err := executor.QueryRowContext(ctx, query,
		userID,
		patch.Firstname,
		patch.Lastname,
		patch.Sex,
		patch.HeightCm,
		patch.WeightKg,
		patch.ExperienceLevel,
		patch.HealthNotes,
		patch.GoalType,
		patch.UnitSystem,
		time.Now(),
	).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Firstname,
		&profile.Lastname,
		&profile.Sex,
		&profile.HeightCm,
		&profile.WeightKg,
		&profile.ExperienceLevel,
		&profile.HealthNotes,
		&profile.GoalType,
		&profile.UnitSystem,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	r.logger.Debug("profile updated", zap.String("user_id", userID))
	return profile, nil
}

// Exists reports whether the user has a profile row
func (r *ProfileRepository) Exists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = $1)`

	executor := GetExecutor(ctx, r.db)

	var exists bool
	if err := executor.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}

	return exists, nil
}
