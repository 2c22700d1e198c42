package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
	"github.com/fitsync/fitsync-backend/supabase"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, tokenString string) (*supabase.Claims, error) {
	args := m.Called(ctx, tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*supabase.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error) {
	args := m.Called(ctx, jwtID)
	if session := args.Get(0); session != nil {
		return session.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	args := m.Called(ctx, userID, now)
	if sessions := args.Get(0); sessions != nil {
		return sessions.([]*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Revoke(ctx context.Context, userID, jwtID string, now time.Time) error {
	args := m.Called(ctx, userID, jwtID, now)
	return args.Error(0)
}

func (m *MockSessionRepository) RevokeOthers(ctx context.Context, userID, currentJWTID string, now time.Time) error {
	args := m.Called(ctx, userID, currentJWTID, now)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if profile := args.Get(0); profile != nil {
		return profile.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	args := m.Called(ctx, userID, patch)
	if profile := args.Get(0); profile != nil {
		return profile.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockPreferencesRepository is a mock implementation of PreferencesRepository
type MockPreferencesRepository struct {
	mock.Mock
}

func (m *MockPreferencesRepository) Create(ctx context.Context, prefs *models.Preferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

func (m *MockPreferencesRepository) GetByUserID(ctx context.Context, userID string) (*models.Preferences, error) {
	args := m.Called(ctx, userID)
	if prefs := args.Get(0); prefs != nil {
		return prefs.(*models.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPreferencesRepository) Update(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error) {
	args := m.Called(ctx, userID, patch)
	if prefs := args.Get(0); prefs != nil {
		return prefs.(*models.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDeviceRepository is a mock implementation of DeviceRepository
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Upsert(ctx context.Context, device *models.Device) (*models.Device, error) {
	args := m.Called(ctx, device)
	if stored := args.Get(0); stored != nil {
		return stored.(*models.Device), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeviceRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Device, error) {
	args := m.Called(ctx, userID)
	if devices := args.Get(0); devices != nil {
		return devices.([]*models.Device), args.Error(1)
	}
	return nil, args.Error(1)
}

// passthroughTxManager runs the transactional function directly, without a
// real database transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, nil
}

func (passthroughTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

func newMockRepositories() (*repositories.Repositories, *MockUserRepository, *MockSessionRepository, *MockProfileRepository, *MockPreferencesRepository, *MockDeviceRepository) {
	users := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	profiles := new(MockProfileRepository)
	prefs := new(MockPreferencesRepository)
	devices := new(MockDeviceRepository)

	repos := &repositories.Repositories{
		Users:       users,
		Sessions:    sessions,
		Profiles:    profiles,
		Preferences: prefs,
		Devices:     devices,
	}
	return repos, users, sessions, profiles, prefs, devices
}
