package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/fitsync/fitsync-backend/models"
)

var (
	// ErrNotFound is returned by point lookups when no row matches
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert loses a uniqueness race.
	// Callers treat it as "already exists, re-read" rather than a failure.
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Automatically commits if function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations. User IDs are the identity
// provider's subject values, never locally generated.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicate if the subject is
	// already provisioned.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by subject identifier
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionRepository handles server-side session records
type SessionRepository interface {
	// Create inserts a new session. Returns ErrDuplicate when the jwt_id
	// is already tracked.
	Create(ctx context.Context, session *models.Session) error

	// GetByJWTID retrieves a session by its provider-assigned identifier
	GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error)

	// ListActiveByUser returns the user's sessions with expiry after now,
	// newest-created first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error)

	// Revoke expires the single session matching (userID, jwtID).
	// Returns ErrNotFound when the session does not belong to the user.
	Revoke(ctx context.Context, userID, jwtID string, now time.Time) error

	// RevokeOthers expires every session of the user except currentJWTID.
	// An empty currentJWTID revokes all of the user's sessions.
	RevokeOthers(ctx context.Context, userID, currentJWTID string, now time.Time) error
}

// ProfileRepository handles per-user profile records
type ProfileRepository interface {
	// Create inserts a new profile
	Create(ctx context.Context, profile *models.Profile) error

	// GetByUserID retrieves a user's profile
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)

	// Update applies only the non-nil fields of the patch in a single
	// statement and returns the resulting row.
	Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)

	// Exists reports whether the user has a profile row
	Exists(ctx context.Context, userID string) (bool, error)
}

// PreferencesRepository handles per-user preference records
type PreferencesRepository interface {
	// Create inserts a preferences row
	Create(ctx context.Context, prefs *models.Preferences) error

	// GetByUserID retrieves a user's preferences
	GetByUserID(ctx context.Context, userID string) (*models.Preferences, error)

	// Update applies only the non-nil fields of the patch in a single
	// statement and returns the resulting row.
	Update(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error)
}

// DeviceRepository handles push-notification device records
type DeviceRepository interface {
	// Upsert inserts the device or, when device_id is already registered,
	// refreshes push token and last-seen and clears any revocation. One
	// atomic statement either way.
	Upsert(ctx context.Context, device *models.Device) (*models.Device, error)

	// ListActiveByUser returns the user's non-revoked devices
	ListActiveByUser(ctx context.Context, userID string) ([]*models.Device, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users       UserRepository
	Sessions    SessionRepository
	Profiles    ProfileRepository
	Preferences PreferencesRepository
	Devices     DeviceRepository
}
