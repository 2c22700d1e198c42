package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
)

// CurrentUser is the composite view of an authenticated account: identity,
// optional profile, preferences, and registered devices.
type CurrentUser struct {
	User        *models.User        `json:"user"`
	Profile     *models.Profile     `json:"profile,omitempty"`
	Preferences *models.Preferences `json:"preferences"`
	Devices     []*models.Device    `json:"devices"`
}

// DeviceRegistration carries the fields of a device registration request
type DeviceRegistration struct {
	Platform  models.Platform
	DeviceID  string
	PushToken *string
}

// AccountService handles profile, preference, session, and device operations
// for an already-authenticated user. Every operation is scoped to the caller;
// no operation can read or modify another user's rows.
type AccountService struct {
	repos  *repositories.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(repos *repositories.Repositories, logger *zap.Logger) *AccountService {
	return &AccountService{
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// GetCurrentUser returns the full account view for a user. The profile slot
// is nil until the user has completed onboarding; preferences always exist
// because they are created with the user.
func (s *AccountService) GetCurrentUser(ctx context.Context, userID string) (*CurrentUser, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapStorage("failed to load user", err)
	}

	profile, err := s.repos.Profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapStorage("failed to load profile", err)
	}

	prefs, err := s.repos.Preferences.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapStorage("failed to load preferences", err)
	}

	devices, err := s.repos.Devices.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, WrapStorage("failed to load devices", err)
	}

	return &CurrentUser{
		User:        user,
		Profile:     profile,
		Preferences: prefs,
		Devices:     devices,
	}, nil
}

// GetProfile returns the user's profile
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repos.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, WrapStorage("failed to load profile", err)
	}
	return profile, nil
}

// UpsertProfile creates the user's profile on first write and applies a
// partial update afterwards. Creation requires both name fields; an update
// touches only the supplied fields. Two concurrent first writes converge on
// the created row, with the loser's patch applied as an update.
func (s *AccountService) UpsertProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	exists, err := s.repos.Profiles.Exists(ctx, userID)
	if err != nil {
		return nil, WrapStorage("failed to check profile", err)
	}

	if exists {
		return s.updateProfile(ctx, userID, patch)
	}

	if patch.Firstname == nil || *patch.Firstname == "" ||
		patch.Lastname == nil || *patch.Lastname == "" {
		return nil, ErrNameRequired
	}

	profile := models.NewProfile(userID, patch)
	err = s.repos.Profiles.Create(ctx, profile)
	if err == nil {
		s.logger.Info("profile created", zap.String("user_id", userID))
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, WrapStorage("failed to create profile", err)
	}

	return s.updateProfile(ctx, userID, patch)
}

func (s *AccountService) updateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	profile, err := s.repos.Profiles.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, WrapStorage("failed to update profile", err)
	}
	return profile, nil
}

// GetPreferences returns the user's preferences
func (s *AccountService) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	prefs, err := s.repos.Preferences.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, WrapStorage("failed to load preferences", err)
	}
	return prefs, nil
}

// UpdatePreferences applies a partial update to the user's preferences.
// Omitted fields keep their stored values.
func (s *AccountService) UpdatePreferences(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error) {
	prefs, err := s.repos.Preferences.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, WrapStorage("failed to update preferences", err)
	}
	return prefs, nil
}

// ListActiveSessions returns the user's currently active sessions, newest
// first.
func (s *AccountService) ListActiveSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	sessions, err := s.repos.Sessions.ListActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, WrapStorage("failed to list sessions", err)
	}
	return sessions, nil
}

// RevokeSession expires one of the caller's sessions by its jwt_id. A
// session that does not exist and a session belonging to someone else are
// indistinguishable to the caller.
func (s *AccountService) RevokeSession(ctx context.Context, userID, jwtID string) error {
	err := s.repos.Sessions.Revoke(ctx, userID, jwtID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRecordNotFound
		}
		return WrapStorage("failed to revoke session", err)
	}

	s.logger.Info("session revoked",
		zap.String("user_id", userID),
		zap.String("jwt_id", jwtID))
	return nil
}

// RevokeOtherSessions expires every session of the caller except the one
// backing the current request. Revoking zero sessions is a success.
func (s *AccountService) RevokeOtherSessions(ctx context.Context, userID, currentJWTID string) error {
	if err := s.repos.Sessions.RevokeOthers(ctx, userID, currentJWTID, s.now()); err != nil {
		return WrapStorage("failed to revoke sessions", err)
	}

	s.logger.Info("other sessions revoked",
		zap.String("user_id", userID),
		zap.String("current_jwt_id", currentJWTID))
	return nil
}

// RegisterDevice registers or refreshes a push-notification device. A device
// identifier seen on another account is reassigned to the caller, and any
// prior revocation is cleared.
func (s *AccountService) RegisterDevice(ctx context.Context, userID string, reg DeviceRegistration) (*models.Device, error) {
	if !reg.Platform.Valid() {
		return nil, NewDomainError(ErrorTypeValidation, "invalid device platform", nil).
			WithDetail("platform", string(reg.Platform))
	}
	if reg.DeviceID == "" {
		return nil, NewDomainError(ErrorTypeValidation, "device_id is required", nil)
	}

	device := models.NewDevice(userID, reg.Platform, reg.DeviceID, reg.PushToken)
	stored, err := s.repos.Devices.Upsert(ctx, device)
	if err != nil {
		return nil, WrapStorage("failed to register device", err)
	}

	return stored, nil
}
