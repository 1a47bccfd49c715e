package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/study-buddy/internal/config"
	"github.com/dom/study-buddy/internal/repository"
	"golang.org/x/sync/errgroup"
)

// SystemService answers the diagnostic endpoints.
type SystemService struct {
	repos *repository.Repositories
	cfg   *config.Config
	now   func() time.Time
}

func NewSystemService(repos *repository.Repositories, cfg *config.Config) *SystemService {
	return &SystemService{repos: repos, cfg: cfg, now: time.Now}
}

type Health struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Deployment string    `json:"deployment"`
}

func (s *SystemService) Health() Health {
	return Health{
		Status:     "healthy",
		Timestamp:  s.now().UTC(),
		Version:    s.cfg.Version,
		Deployment: s.cfg.Environment,
	}
}

type Status struct {
	DatabaseAvailable bool     `json:"database_available"`
	OpenAIConfigured  bool     `json:"openai_configured"`
	Mode              string   `json:"mode"`
	Backend           string   `json:"backend"`
	Message           string   `json:"message"`
	AuthRequired      bool     `json:"auth_required"`
	Features          []string `json:"features"`
}

func (s *SystemService) Status(ctx context.Context) Status {
	dbOK := s.repos.Backend.Ping(ctx) == nil
	aiOK := s.cfg.OpenAIConfigured()

	msg := "All systems operational"
	switch {
	case !dbOK && !aiOK:
		msg = "Storage unavailable; flashcards use basic generation"
	case !dbOK:
		msg = "Storage unavailable; flashcards will not be saved"
	case !aiOK:
		msg = "OpenAI not configured; flashcards use basic generation"
	}

	return Status{
		DatabaseAvailable: dbOK,
		OpenAIConfigured:  aiOK,
		Mode:              s.cfg.Mode(),
		Backend:           s.repos.Backend.Name(),
		Message:           msg,
		AuthRequired:      s.cfg.Auth.Required,
		Features: []string{
			"flashcard_generation",
			"study_sessions",
			"user_accounts",
			"json_export",
			"live_updates",
		},
	}
}

type Stats struct {
	Users         int64
	Sessions      int64
	Flashcards    int64
	StudySessions int64
}

// Stats counts rows in every collection concurrently.
func (s *SystemService) Stats(ctx context.Context) (Stats, error) {
	const op = "service.SystemService.Stats"

	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = s.repos.User.Count(ctx); return })
	g.Go(func() (err error) { st.Sessions, err = s.repos.Session.Count(ctx); return })
	g.Go(func() (err error) { st.Flashcards, err = s.repos.Flashcard.Count(ctx); return })
	g.Go(func() (err error) { st.StudySessions, err = s.repos.StudySession.Count(ctx); return })

	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
