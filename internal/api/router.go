package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/study-buddy/internal/api/handlers"
	"github.com/dom/study-buddy/internal/api/middleware"
	"github.com/dom/study-buddy/internal/config"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/metrics"
	"github.com/dom/study-buddy/internal/service"
	"github.com/dom/study-buddy/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

var endpoints = []string{
	"GET /health",
	"GET /status",
	"GET /debug",
	"GET /metrics",
	"POST /auth/register",
	"POST /auth/login",
	"POST /auth/logout",
	"GET /auth/profile",
	"POST /generate",
	"GET /flashcards",
	"POST /save-session",
	"GET /study-sessions",
	"GET /export/{format}",
	"GET /ws",
}

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, m *metrics.Metrics, log *slog.Logger) http.Handler {
	log = sl.OrDiscard(log)
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics(m))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, handlers.ErrorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, handlers.ErrorResponse{Error: "Method not allowed"})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, log)
	flashcardHandler := handlers.NewFlashcardHandler(services.Flashcards, log)
	systemHandler := handlers.NewSystemHandler(services.System, endpoints, log)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, log)

	// Diagnostics
	r.Get("/health", systemHandler.Health)
	r.Get("/status", systemHandler.Status)
	r.Get("/debug", systemHandler.Debug)
	r.Handle("/metrics", m.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(newLimiter(cfg), log))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth, true))
			r.Get("/profile", authHandler.Profile)
		})
	})

	// Flashcard routes; a token is honored even when not required
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(services.Auth, cfg.Auth.Required))

		r.With(middleware.RateLimit(newLimiter(cfg), log)).Post("/generate", flashcardHandler.Generate)
		r.Get("/flashcards", flashcardHandler.List)
		r.Post("/save-session", flashcardHandler.SaveSession)
		r.Get("/study-sessions", flashcardHandler.ListSessions)
		r.Get("/export/{format}", flashcardHandler.Export)
	})

	// WebSocket endpoint
	r.Get("/ws", wsHandler.Handle)

	return r
}

// limiterIdleTTL is how long a quiet client's bucket is kept.
const limiterIdleTTL = 10 * time.Minute

func newLimiter(cfg *config.Config) *middleware.ClientLimiter {
	return middleware.NewClientLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, limiterIdleTTL)
}
