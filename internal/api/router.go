package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/gcOssi/spark6/internal/api/handlers"
	"github.com/gcOssi/spark6/internal/auth"
	"github.com/gcOssi/spark6/internal/config"
	"github.com/gcOssi/spark6/internal/services"
)

// requestLogger emits one structured log line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request completed")
		}()
		next.ServeHTTP(ww, r)
	})
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, userService services.UserServiceProvider, taskService services.TaskServiceProvider, eventService services.EventServiceProvider, startedAt time.Time) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenExpiry)
	taskHandler := handlers.NewTaskHandler(taskService)
	systemHandler := handlers.NewSystemHandler(userService, eventService, startedAt)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/health", systemHandler.Health)

		// Development-only introspection, disabled in production by default
		if cfg.DebugRoutes {
			r.Get("/debug/users", systemHandler.DebugUsers)
			r.Get("/debug/events", systemHandler.DebugEvents)
		}

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.JWTSecret))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
				})
			})
		})
	})

	// Unmatched routes and methods answer with the standard envelope.
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)

	return r
}
