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

// PreferencesRepository implements the repositories.PreferencesRepository interface
type PreferencesRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *DB, logger *zap.Logger) repositories.PreferencesRepository {
	return &PreferencesRepository{
		db:     db,
		logger: logger,
	}
}

const preferencesColumns = `id, user_id, timezone, unit_system, voice_enabled, tts_voice,
		language, notif_push, notif_email, notif_sms, created_at, updated_at`

// Create inserts a preferences row
func (r *PreferencesRepository) Create(ctx context.Context, prefs *models.Preferences) error {
	query := `
		INSERT INTO preferences (id, user_id, timezone, unit_system, voice_enabled, tts_voice,
			language, notif_push, notif_email, notif_sms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		prefs.ID,
		prefs.UserID,
		prefs.Timezone,
		prefs.UnitSystem,
		prefs.VoiceEnabled,
		prefs.TTSVoice,
		prefs.Language,
		prefs.NotifPush,
		prefs.NotifEmail,
		prefs.NotifSMS,
		prefs.CreatedAt,
		prefs.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create preferences: %w", err)
	}

	r.logger.Debug("preferences created", zap.String("user_id", prefs.UserID))
	return nil
}

// GetByUserID retrieves a user's preferences
func (r *PreferencesRepository) GetByUserID(ctx context.Context, userID string) (*models.Preferences, error) {
	query := `SELECT ` + preferencesColumns + ` FROM preferences WHERE user_id = $1`

	executor := GetExecutor(ctx, r.db)
	prefs := &models.Preferences{}

	err := executor.QueryRowContext(ctx, query, userID).Scan(
		&prefs.ID,
		&prefs.UserID,
		&prefs.Timezone,
		&prefs.UnitSystem,
		&prefs.VoiceEnabled,
		&prefs.TTSVoice,
		&prefs.Language,
		&prefs.NotifPush,
		&prefs.NotifEmail,
		&prefs.NotifSMS,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}

// Update applies only the supplied fields in a single statement
func (r *PreferencesRepository) Update(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error) {
	query := `
		UPDATE preferences
		SET timezone = COALESCE($2, timezone),
		    unit_system = COALESCE($3, unit_system),
		    voice_enabled = COALESCE($4, voice_enabled),
		    tts_voice = COALESCE($5, tts_voice),
		    language = COALESCE($6, language),
		    notif_push = COALESCE($7, notif_push),
		    notif_email = COALESCE($8, notif_email),
		    notif_sms = COALESCE($9, notif_sms),
		    updated_at = $10
		WHERE user_id = $1
		RETURNING ` + preferencesColumns

	executor := GetExecutor(ctx, r.db)
	prefs := &models.Preferences{}

	err := executor.QueryRowContext(ctx, query,
		userID,
		patch.Timezone,
		patch.UnitSystem,
		patch.VoiceEnabled,
		patch.TTSVoice,
		patch.Language,
		patch.NotifPush,
		patch.NotifEmail,
		patch.NotifSMS,
		time.Now(),
	).Scan(
		&prefs.ID,
		&prefs.UserID,
		&prefs.Timezone,
		&prefs.UnitSystem,
		&prefs.VoiceEnabled,
		&prefs.TTSVoice,
		&prefs.Language,
		&prefs.NotifPush,
		&prefs.NotifEmail,
		&prefs.NotifSMS,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	r.logger.Debug("preferences updated", zap.String("user_id", userID))
	return prefs, nil
}
