package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fitsync/fitsync-backend/app"
	"github.com/fitsync/fitsync-backend/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(deps.AccountService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Logger)

	// Liveness and readiness
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Unauthenticated service health, same payload as /healthz
			r.Get("/health", healthHandler.HandleHealth)

			// Everything else requires a reconciled principal
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthMiddleware.RequireAuth)

				r.Get("/me", authHandler.HandleGetCurrentUser)

				r.Get("/profile", authHandler.HandleGetProfile)
				r.Post("/profile", authHandler.HandleUpsertProfile)
				r.Put("/profile", authHandler.HandleUpsertProfile)

				r.Get("/preferences", authHandler.HandleGetPreferences)
				r.Put("/preferences", authHandler.HandleUpdatePreferences)
				r.Patch("/preferences", authHandler.HandleUpdatePreferences)

				r.Get("/sessions", authHandler.HandleListSessions)
				r.Post("/sessions/revoke-others", authHandler.HandleRevokeOtherSessions)
				r.Delete("/sessions/{id}", authHandler.HandleRevokeSession)

				r.Post("/devices", authHandler.HandleRegisterDevice)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"The requested resource was not found"}`))
	})

	return r
}
