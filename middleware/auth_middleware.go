package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/models"
	"github.com/fitsync/fitsync-backend/services"
	"github.com/fitsync/fitsync-backend/utils"
)

// Authenticator turns a bearer token into an authenticated principal
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*models.AuthenticatedUser, error)
}

// ProfileLoader loads a user's profile for profile-gated routes
type ProfileLoader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	auth        Authenticator
	profiles    ProfileLoader
	publicPaths map[string]struct{}
	logger      *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. publicPaths are exact
// request paths that RequireAuth lets through without a credential.
func NewAuthMiddleware(auth Authenticator, profiles ProfileLoader, publicPaths []string, logger *zap.Logger) *AuthMiddleware {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &AuthMiddleware{
		auth:        auth,
		profiles:    profiles,
		publicPaths: public,
		logger:      logger,
	}
}

// RequireAuth rejects requests without a valid bearer credential. On success
// the reconciled principal is attached to the request context. Paths on the
// public allow-list pass through untouched.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing bearer token",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		principal, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			m.writeAuthFailure(w, requestID, err)
			return
		}

		ctx = WithPrincipal(ctx, principal)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", principal.ID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches a principal when a valid credential is presented and
// lets the request through anonymously otherwise. It never rejects.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			m.logger.Debug("optional authentication failed",
				zap.String("request_id", chimiddleware.GetReqID(ctx)),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
	})
}

// RequireProfile refuses callers who have not completed onboarding. The
// loaded profile is attached to the context for downstream handlers. Must run
// after RequireAuth.
func (m *AuthMiddleware) RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		principal := GetPrincipalFromContext(ctx)
		if principal == nil {
			m.logger.Error("principal not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		if !principal.HasProfile() {
			_ = utils.WriteForbidden(w, "Profile completion required")
			return
		}

		profile, err := m.profiles.GetProfile(ctx, principal.ID)
		if err != nil {
			if services.IsNotFoundError(err) {
				_ = utils.WriteForbidden(w, "Profile completion required")
				return
			}
			m.logger.Error("failed to load profile",
				zap.String("request_id", requestID),
				zap.String("user_id", principal.ID),
				zap.Error(err))
			_ = utils.WriteServiceUnavailable(w, "")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithProfile(ctx, profile)))
	})
}

// writeAuthFailure maps reconciliation errors onto the response. Storage or
// key-material outages are never reported as credential problems.
func (m *AuthMiddleware) writeAuthFailure(w http.ResponseWriter, requestID string, err error) {
	if services.IsUnavailableError(err) {
		m.logger.Error("authentication dependency unavailable",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "")
		return
	}

	m.logger.Warn("authentication failed",
		zap.String("request_id", requestID),
		zap.Error(err))
	_ = utils.WriteUnauthorized(w, "Invalid or expired token")
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
