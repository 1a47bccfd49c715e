package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container and returns a migrated
// connection. The test is skipped in -short mode or without Docker.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_flashcards"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(testDB.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	if err := gormrepo.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"study_sessions",
		"flashcards",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		Environment: "test",
		Version:     "test",
		Storage:     config.StorageConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			Required:   true,
			SessionTTL: time.Hour,
		},
		OpenAI: config.OpenAIConfig{
			Model:       "gpt-3.5-turbo",
			MaxTokens:   1000,
			Temperature: 0.7,
			Timeout:     2 * time.Second,
		},
		Flashcards: config.FlashcardsConfig{Min: 3, Max: 10, Default: 5},
		// generous enough that only the rate limit tests trip it
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
}

// StubCompleter answers every prompt with Response, or fails with Err.
type StubCompleter struct {
	Response string
	Err      error

	mu       sync.Mutex
	requests []llm.Request
}

func (s *StubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.Response, s.Err
}

func (s *StubCompleter) Requests() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.requests...)
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
	Metrics  *metrics.Metrics
}

type ServerOption func(*serverOptions)

type serverOptions struct {
	cfg       *config.Config
	completer llm.Completer
	repos     *repository.Repositories
}

func WithConfig(mutate func(*config.Config)) ServerOption {
	return func(o *serverOptions) { mutate(o.cfg) }
}

func WithCompleter(c llm.Completer) ServerOption {
	return func(o *serverOptions) { o.completer = c }
}

func WithRepositories(repos *repository.Repositories) ServerOption {
	return func(o *serverOptions) { o.repos = repos }
}

// NewTestServer creates a complete test server over the memory backend
// unless WithRepositories says otherwise.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	o := &serverOptions{cfg: TestConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if o.repos == nil {
		o.repos = memory.NewRepositories(memory.NewStore())
	}

	log := sl.Discard()
	m := metrics.New(prometheus.NewRegistry())

	hub := websocket.NewHub(m, log)
	go hub.Run()

	services := service.NewServices(o.repos, o.cfg, service.Dependencies{
		Completer: o.completer,
		Publisher: hub,
		Metrics:   m,
		Logger:    log,
	})
	router := api.NewRouter(services, hub, o.cfg, m, log)

	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return &TestServer{
		Server:   server,
		Repos:    o.repos,
		Services: services,
		Hub:      hub,
		Config:   o.cfg,
		Metrics:  m,
	}
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/ws?token=%s", wsURL, token)
}
