package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/lib/sl"
	"github.com/dom/study-buddy/internal/metrics"
	"github.com/dom/study-buddy/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ExportFormatJSON = "json"

// Publisher is notified after flashcards are stored for a user.
type Publisher interface {
	PublishFlashcardsCreated(userID uuid.UUID, ids []string, subject string)
}

type FlashcardService struct {
	generator     *Generator
	flashcards    repository.FlashcardRepository
	studySessions repository.StudySessionRepository
	publisher     Publisher
	metrics       *metrics.Metrics
	log           *slog.Logger
	now           func() time.Time
}

func NewFlashcardService(
	generator *Generator,
	flashcards repository.FlashcardRepository,
	studySessions repository.StudySessionRepository,
	publisher Publisher,
	m *metrics.Metrics,
	log *slog.Logger,
) *FlashcardService {
	return &FlashcardService{
		generator:     generator,
		flashcards:    flashcards,
		studySessions: studySessions,
		publisher:     publisher,
		metrics:       m,
		log:           sl.OrDiscard(log),
		now:           time.Now,
	}
}

type GenerateInput struct {
	Notes    string
	Subject  string
	NumCards int
	Owner    *uuid.UUID
}

type GenerateResult struct {
	Cards  []domain.Card
	IDs    []string
	Source string
	// Saved is false when the cards could not be stored; they are still
	// returned to the caller.
	Saved bool
}

func (s *FlashcardService) GenerateAndSave(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	const op = "service.FlashcardService.GenerateAndSave"

	if strings.TrimSpace(in.Notes) == "" {
		return nil, domain.NewValidationError("Please provide study notes")
	}

	gen := s.generator.Generate(ctx, in.Notes, in.NumCards)
	result := &GenerateResult{
		Cards:  gen.Cards,
		IDs:    []string{},
		Source: gen.Source,
	}
	if len(gen.Cards) == 0 {
		return result, nil
	}

	ids, err := s.SaveFlashcards(ctx, gen.Cards, in.Subject, in.Owner)
	if err != nil {
		s.log.Error("failed to save generated flashcards", slog.String("op", op), sl.Err(err))
		return result, nil
	}

	result.IDs = ids
	result.Saved = true
	return result, nil
}

// SaveFlashcards stores cards under subject and returns their ids in input
// order. A blank subject becomes "General".
func (s *FlashcardService) SaveFlashcards(ctx context.Context, cards []domain.Card, subject string, owner *uuid.UUID) ([]string, error) {
	const op = "service.FlashcardService.SaveFlashcards"

	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = domain.DefaultSubject
	}

	now := s.now()
	records := make([]*domain.Flashcard, 0, len(cards))
	ids := make([]string, 0, len(cards))
	for i, c := range cards {
		id := uuid.New()
		records = append(records, &domain.Flashcard{
			ID:       id,
			UserID:   owner,
			Question: c.Question,
			Answer:   c.Answer,
			Subject:  subject,
			// keep insertion order visible to created_at DESC listings
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
		ids = append(ids, id.String())
	}

	if err := s.flashcards.CreateBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.AddFlashcardsSaved(len(records))

	if owner != nil && s.publisher != nil {
		s.publisher.PublishFlashcardsCreated(*owner, ids, subject)
	}

	return ids, nil
}

// FlashcardPage is a listing result. Degraded is set when storage could
// not be read and Flashcards is empty for that reason.
type FlashcardPage struct {
	Flashcards []*domain.Flashcard
	Degraded   bool
}

func (s *FlashcardService) ListFlashcards(ctx context.Context, owner *uuid.UUID) (*FlashcardPage, error) {
	const op = "service.FlashcardService.ListFlashcards"

	cards, err := s.flashcards.List(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			s.log.Warn("flashcard storage unavailable, returning empty list", slog.String("op", op), sl.Err(err))
			return &FlashcardPage{Flashcards: []*domain.Flashcard{}, Degraded: true}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FlashcardPage{Flashcards: cards}, nil
}

type SaveStudySessionInput struct {
	Name         string
	FlashcardIDs []string
	Owner        *uuid.UUID
}

func (s *FlashcardService) SaveStudySession(ctx context.Context, in SaveStudySessionInput) (string, error) {
	const op = "service.FlashcardService.SaveStudySession"

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain.DefaultSessionName
	}
	ids := in.FlashcardIDs
	if ids == nil {
		ids = []string{}
	}

	session := &domain.StudySession{
		ID:           uuid.New(),
		UserID:       in.Owner,
		SessionName:  name,
		FlashcardIDs: datatypes.JSONSlice[string](ids),
		CreatedAt:    s.now(),
	}
	if err := s.studySessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return session.ID.String(), nil
}

type StudySessionPage struct {
	StudySessions []*domain.StudySession
	Degraded      bool
}

func (s *FlashcardService) ListStudySessions(ctx context.Context, owner *uuid.UUID) (*StudySessionPage, error) {
	const op = "service.FlashcardService.ListStudySessions"

	sessions, err := s.studySessions.List(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			s.log.Warn("study session storage unavailable, returning empty list", slog.String("op", op), sl.Err(err))
			return &StudySessionPage{StudySessions: []*domain.StudySession{}, Degraded: true}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &StudySessionPage{StudySessions: sessions}, nil
}

// Export renders the caller's flashcards in format. Only "json" exists; the
// format is checked before storage is touched.
func (s *FlashcardService) Export(ctx context.Context, format string, owner *uuid.UUID) (*FlashcardPage, error) {
	if !strings.EqualFold(strings.TrimSpace(format), ExportFormatJSON) {
		return nil, domain.ErrUnsupportedFormat
	}
	return s.ListFlashcards(ctx, owner)
}
