package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jfelder/gatekeep-be/internal/api/handlers"
	"github.com/jfelder/gatekeep-be/internal/auth"
	"github.com/jfelder/gatekeep-be/internal/config"
	"github.com/jfelder/gatekeep-be/internal/monitoring"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/jfelder/gatekeep-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	tokens *auth.Manager,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	eventService services.EventServiceProvider,
	backupService services.BackupServiceProvider,
	monitor *monitoring.SystemMonitor,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	secureCookies := cfg.AppEnv == "production"

	authHandler := handlers.NewAuthHandler(userService, eventService, tokens, secureCookies)
	userHandler := handlers.NewUserHandler(userService, eventService, tokens, secureCookies)
	eventHandler := handlers.NewEventHandler(eventService)
	backupHandler := handlers.NewBackupHandler(backupService)
	systemHandler := handlers.NewSystemHandler(monitor)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Session optional: the bootstrap form needs the state endpoint and
		// the first user-creation request before any session exists.
		r.Group(func(r chi.Router) {
			r.Use(tokens.OptionalMiddleware())
			r.Get("/auth/state", authHandler.State)
			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/users", userHandler.Create)
		})

		// Session required.
		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware())
			r.Get("/auth/me", authHandler.GetMe)
			r.Get("/users", userHandler.GetAll)
			r.Delete("/users/{username}", userHandler.Delete)
			r.Get("/events", eventHandler.GetRecent)
			r.Get("/system", systemHandler.Get)
			r.Route("/backups", func(r chi.Router) {
				r.Get("/", backupHandler.GetAll)
				r.Post("/", backupHandler.Create)
				r.Delete("/{id}", backupHandler.Delete)
			})
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
