package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/study-buddy/internal/api"
	"github.com/dom/study-buddy/internal/config"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/llm"
	"github.com/dom/study-buddy/internal/metrics"
	"github.com/dom/study-buddy/internal/repository"
	"github.com/dom/study-buddy/internal/repository/gormrepo"
	"github.com/dom/study-buddy/internal/repository/memory"
	"github.com/dom/study-buddy/internal/service"
	"github.com/dom/study-buddy/internal/websocket"
)

const sessionCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := setupLogger(cfg)
	log.Info("starting study buddy",
		slog.String("env", cfg.Environment),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("auth_required", cfg.Auth.Required),
	)

	repos, err := setupStorage(cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", sl.Err(err))
		os.Exit(1)
	}
	defer repos.Backend.Close()

	m := metrics.NewDefault()

	var completer llm.Completer
	if cfg.OpenAIConfigured() {
		completer = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
	} else {
		log.Warn("OPENAI_API_KEY not set, flashcards will use basic generation")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(m, log)
	go hub.Run()

	services := service.NewServices(repos, cfg, service.Dependencies{
		Completer: completer,
		Publisher: hub,
		Metrics:   m,
		Logger:    log,
	})

	router := api.NewRouter(services, hub, cfg, m, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, services.Auth, log)

	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", sl.Err(err))
	}
	hub.Stop()

	log.Info("server stopped")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// setupStorage picks the backend named by the config. An unreachable
// database is logged and the server keeps running in degraded mode.
func setupStorage(cfg *config.Config, log *slog.Logger) (*repository.Repositories, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), nil
	}

	db, err := gormrepo.NewConnection(cfg.Storage.Driver, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := gormrepo.Migrate(db); err != nil {
		log.Error("database unavailable, running without persistence", sl.Err(err))
	} else {
		log.Info("database ready", slog.String("driver", cfg.Storage.Driver))
	}

	return gormrepo.NewRepositories(db), nil
}

func cleanupSessions(ctx context.Context, auth *service.AuthService, log *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.CleanupExpiredSessions(ctx)
			if err != nil {
				log.Warn("session cleanup failed", sl.Err(err))
				continue
			}
			if n > 0 {
				log.Info("expired sessions removed", slog.Int64("count", n))
			}
		}
	}
}
