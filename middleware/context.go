package middleware

import (
	"context"

	"github.com/fitsync/fitsync-backend/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// ProfileKey is the context key for the caller's profile
	ProfileKey contextKey = "profile"
)

// GetPrincipalFromContext retrieves the authenticated principal from context
func GetPrincipalFromContext(ctx context.Context) *models.AuthenticatedUser {
	if val := ctx.Value(PrincipalKey); val != nil {
		if principal, ok := val.(*models.AuthenticatedUser); ok {
			return principal
		}
	}
	return nil
}

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *models.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetProfileFromContext retrieves the caller's profile from context.
// Only set on routes behind RequireProfile.
func GetProfileFromContext(ctx context.Context) *models.Profile {
	if val := ctx.Value(ProfileKey); val != nil {
		if profile, ok := val.(*models.Profile); ok {
			return profile
		}
	}
	return nil
}

// WithProfile adds the caller's profile to the context
func WithProfile(ctx context.Context, profile *models.Profile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}
