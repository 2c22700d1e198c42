package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
)

var deviceTestColumns = []string{
	"id", "user_id", "platform", "device_id", "push_token", "last_seen_at", "revoked_at", "created_at",
}

func TestDeviceRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	token := "push-token-1"
	device := models.NewDevice("sub-123", models.PlatformIOS, "hw-abc", &token)

	rows := sqlmock.NewRows(deviceTestColumns).
		AddRow(device.ID, device.UserID, "ios", device.DeviceID, token,
			device.LastSeenAt, nil, device.CreatedAt)

	mock.ExpectQuery("INSERT INTO devices").
		WithArgs(
			device.ID, device.UserID, device.Platform, device.DeviceID,
			device.PushToken, device.LastSeenAt, device.CreatedAt,
		).
		WillReturnRows(rows)

	result, err := repo.Upsert(context.Background(), device)

	require.NoError(t, err)
	assert.Equal(t, "hw-abc", result.DeviceID)
	assert.Equal(t, models.PlatformIOS, result.Platform)
	assert.Nil(t, result.RevokedAt)
	assert.False(t, result.Revoked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Upsert_ReassignsExistingDevice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	token := "new-token"
	device := models.NewDevice("new-owner", models.PlatformAndroid, "hw-abc", &token)

	// the conflict branch keeps the original row id and created_at
	originalID := uuid.New()
	originalCreated := time.Now().Add(-48 * time.Hour)
	rows := sqlmock.NewRows(deviceTestColumns).
		AddRow(originalID, "new-owner", "android", "hw-abc", token,
			device.LastSeenAt, nil, originalCreated)

	mock.ExpectQuery("INSERT INTO devices").
		WillReturnRows(rows)

	result, err := repo.Upsert(context.Background(), device)

	require.NoError(t, err)
	assert.Equal(t, originalID, result.ID)
	assert.Equal(t, "new-owner", result.UserID)
	assert.WithinDuration(t, originalCreated, result.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_ListActiveByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	now := time.Now()
	rows := sqlmock.NewRows(deviceTestColumns).
		AddRow(uuid.New(), "sub-123", "ios", "hw-phone", "tok-1", now, nil, now).
		AddRow(uuid.New(), "sub-123", "web", "hw-browser", nil, now.Add(-time.Hour), nil, now)

	mock.ExpectQuery("SELECT (.+) FROM devices").
		WithArgs("sub-123").
		WillReturnRows(rows)

	devices, err := repo.ListActiveByUser(context.Background(), "sub-123")

	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "hw-phone", devices[0].DeviceID)
	assert.Equal(t, models.PlatformWeb, devices[1].Platform)
	assert.Nil(t, devices[1].PushToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_ListActiveByUser_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM devices").
		WithArgs("sub-123").
		WillReturnRows(sqlmock.NewRows(deviceTestColumns))

	devices, err := repo.ListActiveByUser(context.Background(), "sub-123")

	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.NoError(t, mock.ExpectationsWereMet())
}
