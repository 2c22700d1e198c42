package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
)

func TestSessionRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	session := models.NewSession("sub-123", "jwt-abc", time.Now().Add(time.Hour))

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.UserID, session.JWTID, session.ExpiresAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), session)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	session := models.NewSession("sub-123", "jwt-abc", time.Now().Add(time.Hour))

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), session)

	assert.ErrorIs(t, err, repositories.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByJWTID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	id := uuid.New()
	expiresAt := time.Now().Add(time.Hour)
	createdAt := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "jwt_id", "expires_at", "created_at"}).
		AddRow(id, "sub-123", "jwt-abc", expiresAt, createdAt)

	mock.ExpectQuery("SELECT id, user_id, jwt_id, expires_at, created_at").
		WithArgs("jwt-abc").
		WillReturnRows(rows)

	session, err := repo.GetByJWTID(context.Background(), "jwt-abc")

	require.NoError(t, err)
	assert.Equal(t, id, session.ID)
	assert.Equal(t, "sub-123", session.UserID)
	assert.Equal(t, "jwt-abc", session.JWTID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByJWTID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT id, user_id, jwt_id, expires_at, created_at").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	session, err := repo.GetByJWTID(context.Background(), "missing")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListActiveByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "jwt_id", "expires_at", "created_at"}).
		AddRow(uuid.New(), "sub-123", "jwt-new", now.Add(time.Hour), now).
		AddRow(uuid.New(), "sub-123", "jwt-old", now.Add(30*time.Minute), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, user_id, jwt_id, expires_at, created_at").
		WithArgs("sub-123", now).
		WillReturnRows(rows)

	sessions, err := repo.ListActiveByUser(context.Background(), "sub-123", now)

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "jwt-new", sessions[0].JWTID)
	assert.Equal(t, "jwt-old", sessions[1].JWTID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListActiveByUser_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, jwt_id, expires_at, created_at").
		WithArgs("sub-123", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "jwt_id", "expires_at", "created_at"}))

	sessions, err := repo.ListActiveByUser(context.Background(), "sub-123", now)

	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Revoke(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectExec("UPDATE sessions").
		WithArgs("sub-123", "jwt-abc", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Revoke(context.Background(), "sub-123", "jwt-abc", now)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Revoke_NotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectExec("UPDATE sessions").
		WithArgs("sub-123", "someone-elses", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "sub-123", "someone-elses", now)

	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_RevokeOthers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectExec("UPDATE sessions").
		WithArgs("sub-123", "jwt-current", now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.RevokeOthers(context.Background(), "sub-123", "jwt-current", now)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_RevokeOthers_NoCurrentSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	now := time.Now()
	mock.ExpectExec("UPDATE sessions").
		WithArgs("sub-123", now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.RevokeOthers(context.Background(), "sub-123", "", now)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
