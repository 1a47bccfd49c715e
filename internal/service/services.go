package service

import (
	"log/slog"

	"github.com/dom/study-buddy/internal/config"
	"github.com/dom/study-buddy/internal/llm"
	"github.com/dom/study-buddy/internal/metrics"
	"github.com/dom/study-buddy/internal/repository"
)

type Services struct {
	Auth       *AuthService
	Generator  *Generator
	Flashcards *FlashcardService
	System     *SystemService
}

// Dependencies are the collaborators that live outside the repositories.
// Any of them may be nil.
type Dependencies struct {
	Completer llm.Completer
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies) *Services {
	generator := NewGenerator(deps.Completer, GeneratorConfig{
		MinCards:     cfg.Flashcards.Min,
		MaxCards:     cfg.Flashcards.Max,
		DefaultCards: cfg.Flashcards.Default,
		Timeout:      cfg.OpenAI.Timeout,
	}, deps.Metrics, deps.Logger)

	return &Services{
		Auth:       NewAuthService(repos.User, repos.Session, cfg.Auth.SessionTTL, deps.Logger),
		Generator:  generator,
		Flashcards: NewFlashcardService(generator, repos.Flashcard, repos.StudySession, deps.Publisher, deps.Metrics, deps.Logger),
		System:     NewSystemService(repos, cfg),
	}
}
