package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
)

// DeviceRepository implements the repositories.DeviceRepository interface
type DeviceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB, logger *zap.Logger) repositories.DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

const deviceColumns = `id, user_id, platform, device_id, push_token, last_seen_at, revoked_at, created_at`

// Upsert registers the device or refreshes an existing registration.
// ON CONFLICT on the global device_id constraint makes this one atomic
// statement: a re-registration updates the owner, push token and last-seen
// and clears any revocation instead of inserting a duplicate.
func (r *DeviceRepository) Upsert(ctx context.Context, device *models.Device) (*models.Device, error) {
	query := `
		INSERT INTO devices (id, user_id, platform, device_id, push_token, last_seen_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)
		ON CONFLICT (device_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    platform = EXCLUDED.platform,
		    push_token = EXCLUDED.push_token,
		    last_seen_at = EXCLUDED.last_seen_at,
		    revoked_at = NULL
		RETURNING ` + deviceColumns

	executor := GetExecutor(ctx, r.db)
	result := &models.Device{}

	err := executor.QueryRowContext(ctx, query,
		device.ID,
		device.UserID,
		device.Platform,
		device.DeviceID,
		device.PushToken,
		device.LastSeenAt,
		device.CreatedAt,
	).Scan(
		&result.ID,
		&result.UserID,
		&result.Platform,
		&result.DeviceID,
		&result.PushToken,
		&result.LastSeenAt,
		&result.RevokedAt,
		&result.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	r.logger.Debug("device upserted",
		zap.String("device_id", result.DeviceID),
		zap.String("user_id", result.UserID))
	return result, nil
}

// ListActiveByUser returns the user's non-revoked devices
func (r *DeviceRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY last_seen_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device := &models.Device{}
		err := rows.Scan(
			&device.ID,
			&device.UserID,
			&device.Platform,
			&device.DeviceID,
			&device.PushToken,
			&device.LastSeenAt,
			&device.RevokedAt,
			&device.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device rows: %w", err)
	}

	return devices, nil
}
