package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/repositories"
	"github.com/fitsync/fitsync-backend/supabase"
)

// TokenValidator verifies a bearer credential and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*supabase.Claims, error)
}

// AuthServiceConfig holds behavior toggles for the AuthService
type AuthServiceConfig struct {
	// TrackSessions enables server-side session reconciliation. When
	// disabled, tokens are honored on signature and claims alone.
	TrackSessions bool

	// PreferenceDefaults seed the preferences row created alongside a
	// newly provisioned user.
	PreferenceDefaults models.PreferenceDefaults
}

// AuthService turns a validated credential into a locally provisioned
// principal. Users and sessions are created lazily on first sight; a token
// whose server-side session has been revoked or has lapsed is refused even
// though its signature still verifies.
type AuthService struct {
	validator TokenValidator
	repos     *repositories.Repositories
	txManager repositories.TransactionManager
	config    AuthServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService instance
func NewAuthService(
	validator TokenValidator,
	repos *repositories.Repositories,
	txManager repositories.TransactionManager,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		validator: validator,
		repos:     repos,
		txManager: txManager,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Authenticate validates the bearer token and reconciles its identity into
// local storage, returning the request principal. Any failure yields a nil
// principal; there is no partial result.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.AuthenticatedUser, error) {
	claims, err := s.validator.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, s.mapValidationError(err)
	}

	return s.Reconcile(ctx, claims)
}

// Reconcile ensures the claims' subject exists locally, reconciles the
// server-side session when enabled, and builds the principal. Role is taken
// from the credential on every call, never from stored state.
func (s *AuthService) Reconcile(ctx context.Context, claims *supabase.Claims) (*models.AuthenticatedUser, error) {
	user, err := s.ensureUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	if s.config.TrackSessions && claims.SessionID != "" {
		if _, err := s.ensureSession(ctx, user.ID, claims); err != nil {
			return nil, err
		}
	}

	hasProfile, err := s.repos.Profiles.Exists(ctx, user.ID)
	if err != nil {
		return nil, WrapStorage("failed to check profile", err)
	}

	metadata := make(map[string]interface{}, len(claims.UserMetadata)+1)
	for k, v := range claims.UserMetadata {
		metadata[k] = v
	}
	metadata["hasProfile"] = hasProfile

	principal := &models.AuthenticatedUser{
		ID:        user.ID,
		Email:     claims.Email,
		Phone:     claims.Phone,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		Metadata:  metadata,
	}

	return principal, nil
}

// ensureUser returns the locally provisioned user for the claims' subject,
// creating it together with default preferences when absent. A concurrent
// first request for the same subject is resolved by re-reading after the
// losing insert.
func (s *AuthService) ensureUser(ctx context.Context, claims *supabase.Claims) (*models.User, error) {
	subject := claims.Subject

	user, err := s.repos.Users.GetByID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapStorage("failed to load user", err)
	}

	var phone *string
	if claims.Phone != "" {
		p := claims.Phone
		phone = &p
	}
	newUser := models.NewUser(subject, claims.Email, phone)
	prefs := models.NewPreferences(subject, s.config.PreferenceDefaults)

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.repos.Users.Create(txCtx, newUser); err != nil {
			return err
		}
		return s.repos.Preferences.Create(txCtx, prefs)
	})
	if err == nil {
		s.logger.Info("provisioned new user",
			zap.String("user_id", subject))
		return newUser, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, WrapStorage("failed to provision user", err)
	}

	// Lost the provisioning race; the winner's row is authoritative.
	user, err = s.repos.Users.GetByID(ctx, subject)
	if err != nil {
		return nil, WrapStorage("failed to load user after duplicate insert", err)
	}
	return user, nil
}

// ensureSession reconciles the claims' session_id against local storage.
// An untracked session is recorded with the token's expiry; a tracked one
// must still be active and belong to the subject.
func (s *AuthService) ensureSession(ctx context.Context, userID string, claims *supabase.Claims) (*models.Session, error) {
	session, err := s.repos.Sessions.GetByJWTID(ctx, claims.SessionID)
	if err == nil {
		return s.checkSession(session, userID)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapStorage("failed to load session", err)
	}

	expiresAt, ok := claims.Expiry()
	if !ok {
		// The validator refuses session-bearing tokens without exp, so a
		// missing expiry here means the claims bypassed validation.
		return nil, ErrInvalidCredential
	}

	newSession := models.NewSession(userID, claims.SessionID, expiresAt)
	err = s.repos.Sessions.Create(ctx, newSession)
	if err == nil {
		return newSession, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, WrapStorage("failed to create session", err)
	}

	session, err = s.repos.Sessions.GetByJWTID(ctx, claims.SessionID)
	if err != nil {
		return nil, WrapStorage("failed to load session after duplicate insert", err)
	}
	return s.checkSession(session, userID)
}

// checkSession rejects sessions that have lapsed, been revoked, or that
// belong to a different subject.
func (s *AuthService) checkSession(session *models.Session, userID string) (*models.Session, error) {
	if session.UserID != userID {
		s.logger.Warn("session subject mismatch",
			zap.String("session_user_id", session.UserID),
			zap.String("token_user_id", userID))
		return nil, ErrInvalidCredential
	}
	if !session.Active(s.now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// mapValidationError translates validator sentinels into the domain error
// taxonomy.
func (s *AuthService) mapValidationError(err error) error {
	switch {
	case errors.Is(err, supabase.ErrTokenExpired):
		return ErrCredentialExpired
	case errors.Is(err, supabase.ErrJWKSFetchFailed):
		return WrapError(ErrorTypeUnavailable, "key material unavailable", err)
	default:
		return NewDomainError(ErrorTypeUnauthorized, "invalid credential", err)
	}
}
