package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fitsync/fitsync-backend/config"
	"github.com/fitsync/fitsync-backend/middleware"
	"github.com/fitsync/fitsync-backend/repositories"
	"github.com/fitsync/fitsync-backend/repositories/postgres"
	"github.com/fitsync/fitsync-backend/services"
	"github.com/fitsync/fitsync-backend/supabase"
)

// PublicPaths are the request paths served without a credential
var PublicPaths = []string{
	"/api/v1/auth/health",
}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Token validation and services
	Validator      *supabase.Validator
	AuthService    *services.AuthService
	AccountService *services.AccountService

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, factory and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

// initServices wires the token validator, services and auth middleware
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Validator = supabase.NewValidator(supabase.Config{
		Issuer:      cfg.Supabase.Issuer,
		Audience:    cfg.Supabase.Audience,
		JWTSecret:   cfg.Supabase.JWTSecret,
		JWKSURL:     cfg.Supabase.JWKSURL,
		CacheTTL:    cfg.Supabase.CacheTTL,
		HTTPTimeout: cfg.Supabase.HTTPTimeout,
	})

	d.AuthService = services.NewAuthService(
		d.Validator,
		d.Repos,
		d.TxManager,
		services.AuthServiceConfig{
			TrackSessions:      cfg.App.TrackSessions,
			PreferenceDefaults: cfg.App.PreferenceDefaults,
		},
		d.Logger,
	)
	d.AccountService = services.NewAccountService(d.Repos, d.Logger)

	d.AuthMiddleware = middleware.NewAuthMiddleware(
		d.AuthService,
		d.AccountService,
		PublicPaths,
		d.Logger,
	)

	d.Logger.Info("services initialized",
		zap.Bool("track_sessions", cfg.App.TrackSessions),
		zap.Bool("jwks_mode", cfg.Supabase.JWKSURL != ""))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
