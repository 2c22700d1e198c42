package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/middleware"
	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/services"
	"github.com/fitsync/fitsync-backend/utils"
)

// UpsertProfileRequest represents a profile create or update request. On
// first write firstname and lastname must be present; afterwards any subset
// of fields may be sent.
type UpsertProfileRequest struct {
	Firstname       *string  `json:"firstname,omitempty" validate:"omitempty,min=1,max=100"`
	Lastname        *string  `json:"lastname,omitempty" validate:"omitempty,min=1,max=100"`
	Sex             *string  `json:"sex,omitempty" validate:"omitempty,oneof=male female other"`
	HeightCm        *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0,lte=300"`
	WeightKg        *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0,lte=500"`
	ExperienceLevel *string  `json:"experience_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	HealthNotes     *string  `json:"health_notes,omitempty" validate:"omitempty,max=2000"`
	GoalType        *string  `json:"goal_type,omitempty" validate:"omitempty,oneof=weight_loss muscle_gain endurance general_fitness"`
	UnitSystem      *string  `json:"unit_system,omitempty" validate:"omitempty,oneof=metric imperial"`
}

// UpdatePreferencesRequest represents a partial preferences update. Omitted
// fields keep their stored values.
type UpdatePreferencesRequest struct {
	Timezone     *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	UnitSystem   *string `json:"unit_system,omitempty" validate:"omitempty,oneof=metric imperial"`
	VoiceEnabled *bool   `json:"voice_enabled,omitempty"`
	TTSVoice     *string `json:"tts_voice,omitempty" validate:"omitempty,max=100"`
	Language     *string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
	NotifPush    *bool   `json:"notif_push,omitempty"`
	NotifEmail   *bool   `json:"notif_email,omitempty"`
	NotifSMS     *bool   `json:"notif_sms,omitempty"`
}

// RegisterDeviceRequest represents a device registration request
type RegisterDeviceRequest struct {
	Platform  string  `json:"platform" validate:"required,oneof=ios android web"`
	DeviceID  string  `json:"device_id" validate:"required,min=1,max=255"`
	PushToken *string `json:"push_token,omitempty" validate:"omitempty,max=4096"`
}

// SessionResponse represents a session in API responses. The public
// identifier is the provider-assigned session id, which is also what the
// revoke endpoints accept.
type SessionResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

// AccountService defines the account operations the handler depends on
type AccountService interface {
	GetCurrentUser(ctx context.Context, userID string) (*services.CurrentUser, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)
	GetPreferences(ctx context.Context, userID string) (*models.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error)
	ListActiveSessions(ctx context.Context, userID string) ([]*models.Session, error)
	RevokeSession(ctx context.Context, userID, jwtID string) error
	RevokeOtherSessions(ctx context.Context, userID, currentJWTID string) error
	RegisterDevice(ctx context.Context, userID string, reg services.DeviceRegistration) (*models.Device, error)
}

// AuthHandler handles authenticated account HTTP requests
type AuthHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleGetCurrentUser handles GET /api/v1/auth/me
func (h *AuthHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	current, err := h.accounts.GetCurrentUser(ctx, principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, current)
}

// HandleGetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(ctx, principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleUpsertProfile handles PUT /api/v1/auth/profile
func (h *AuthHandler) HandleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	var req UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	created := false
	profile, err := h.accounts.UpsertProfile(ctx, principal.ID, req.toPatch())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if profile.CreatedAt.Equal(profile.UpdatedAt) {
		created = true
	}

	h.logger.Info("profile upserted",
		zap.String("user_id", principal.ID),
		zap.Bool("created", created))

	if created {
		_ = utils.WriteCreated(w, profile)
		return
	}
	_ = utils.WriteOK(w, profile)
}

// HandleGetPreferences handles GET /api/v1/auth/preferences
func (h *AuthHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	prefs, err := h.accounts.GetPreferences(ctx, principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, prefs)
}

// HandleUpdatePreferences handles PATCH /api/v1/auth/preferences
func (h *AuthHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	prefs, err := h.accounts.UpdatePreferences(ctx, principal.ID, req.toPatch())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, prefs)
}

// HandleListSessions handles GET /api/v1/auth/sessions
func (h *AuthHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	sessions, err := h.accounts.ListActiveSessions(ctx, principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = SessionResponse{
			ID:        s.JWTID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
			Current:   s.JWTID == principal.SessionID,
		}
	}

	_ = utils.WriteOK(w, responses)
}

// HandleRevokeSession handles DELETE /api/v1/auth/sessions/{id}
func (h *AuthHandler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		_ = utils.WriteBadRequest(w, "Session id is required", nil)
		return
	}

	if err := h.accounts.RevokeSession(ctx, principal.ID, sessionID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// HandleRevokeOtherSessions handles POST /api/v1/auth/sessions/revoke-others
func (h *AuthHandler) HandleRevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	if err := h.accounts.RevokeOtherSessions(ctx, principal.ID, principal.SessionID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// HandleRegisterDevice handles POST /api/v1/auth/devices
func (h *AuthHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.requirePrincipal(w, ctx)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	device, err := h.accounts.RegisterDevice(ctx, principal.ID, services.DeviceRegistration{
		Platform:  models.Platform(req.Platform),
		DeviceID:  req.DeviceID,
		PushToken: req.PushToken,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("device registered",
		zap.String("user_id", principal.ID),
		zap.String("platform", req.Platform))

	_ = utils.WriteOK(w, device)
}

// requirePrincipal pulls the authenticated principal off the context. The
// auth middleware puts it there; a miss means the route is wired wrong.
func (h *AuthHandler) requirePrincipal(w http.ResponseWriter, ctx context.Context) (*models.AuthenticatedUser, bool) {
	principal := middleware.GetPrincipalFromContext(ctx)
	if principal == nil {
		h.logger.Error("principal not found in context")
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return principal, true
}

func (r *UpsertProfileRequest) toPatch() models.ProfilePatch {
	patch := models.ProfilePatch{
		Firstname:   r.Firstname,
		Lastname:    r.Lastname,
		HeightCm:    r.HeightCm,
		WeightKg:    r.WeightKg,
		HealthNotes: r.HealthNotes,
	}
	if r.Sex != nil {
		sex := models.Sex(*r.Sex)
		patch.Sex = &sex
	}
	if r.ExperienceLevel != nil {
		level := models.ExperienceLevel(*r.ExperienceLevel)
		patch.ExperienceLevel = &level
	}
	if r.GoalType != nil {
		goal := models.GoalType(*r.GoalType)
		patch.GoalType = &goal
	}
	if r.UnitSystem != nil {
		units := models.UnitSystem(*r.UnitSystem)
		patch.UnitSystem = &units
	}
	return patch
}

func (r *UpdatePreferencesRequest) toPatch() models.PreferencesPatch {
	patch := models.PreferencesPatch{
		Timezone:     r.Timezone,
		VoiceEnabled: r.VoiceEnabled,
		TTSVoice:     r.TTSVoice,
		Language:     r.Language,
		NotifPush:    r.NotifPush,
		NotifEmail:   r.NotifEmail,
		NotifSMS:     r.NotifSMS,
	}
	if r.UnitSystem != nil {
		units := models.UnitSystem(*r.UnitSystem)
		patch.UnitSystem = &units
	}
	return patch
}
