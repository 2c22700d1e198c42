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

// SessionRepository implements the repositories.SessionRepository interface
type SessionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB, logger *zap.Logger) repositories.SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new session record
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, jwt_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.JWTID,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug("session created",
		zap.String("jwt_id", session.JWTID),
		zap.String("user_id", session.UserID))
	return nil
}

// GetByJWTID retrieves a session by its provider-assigned identifier
func (r *SessionRepository) GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, jwt_id, expires_at, created_at
		FROM sessions
		WHERE jwt_id = $1
	`

	executor := GetExecutor(ctx, r.db)
	session := &models.Session{}

	err := executor.QueryRowContext(ctx, query, jwtID).Scan(
		&session.ID,
		&session.UserID,
		&session.JWTID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// ListActiveByUser returns the user's unexpired sessions, newest first
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT id, user_id, jwt_id, expires_at, created_at
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session := &models.Session{}
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.JWTID,
			&session.ExpiresAt,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// Revoke soft-expires the single session matching (userID, jwtID).
// A single UPDATE so ownership check and expiry are one atomic operation.
func (r *SessionRepository) Revoke(ctx context.Context, userID, jwtID string, now time.Time) error {
	query := `
		UPDATE sessions
		SET expires_at = $3
		WHERE user_id = $1 AND jwt_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, userID, jwtID, now)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Debug("session revoked",
		zap.String("jwt_id", jwtID),
		zap.String("user_id", userID))
	return nil
}

// RevokeOthers soft-expires every session of the user except currentJWTID.
// An empty currentJWTID revokes all of the user's sessions.
func (r *SessionRepository) RevokeOthers(ctx context.Context, userID, currentJWTID string, now time.Time) error {
	executor := GetExecutor(ctx, r.db)

	var err error
	if currentJWTID == "" {
		_, err = executor.ExecContext(ctx,
			`UPDATE sessions SET expires_at = $2 WHERE user_id = $1`,
			userID, now)
	} else {
		_, err = executor.ExecContext(ctx,
			`UPDATE sessions SET expires_at = $3 WHERE user_id = $1 AND jwt_id <> $2`,
			userID, currentJWTID, now)
	}

	if err != nil {
		return fmt.Errorf("failed to revoke other sessions: %w", err)
	}

	r.logger.Debug("other sessions revoked",
		zap.String("user_id", userID),
		zap.String("current_jwt_id", currentJWTID))
	return nil
}
