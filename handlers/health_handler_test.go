package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/utils"
)

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/health", nil)
	rec := httptest.NewRecorder()

	handler.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response utils.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleReadiness_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	handler := NewHealthHandler(db, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response utils.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])

	checks := data["checks"].(map[string]interface{})
	assert.Equal(t, "healthy", checks["database"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleReadiness_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	handler := NewHealthHandler(db, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response utils.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "unhealthy", data["status"])

	checks := data["checks"].(map[string]interface{})
	assert.Equal(t, "unhealthy", checks["database"])
}

func TestHandleReadiness_NoDatabaseConfigured(t *testing.T) {
	handler := NewHealthHandler(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
