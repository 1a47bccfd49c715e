package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/repository"
	"github.com/dom/study-buddy/internal/repository/memory"
	"github.com/dom/study-buddy/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unavailableFlashcards fails every call the way a dead database does.
type unavailableFlashcards struct{}

func (unavailableFlashcards) CreateBatch(context.Context, []*domain.Flashcard) error {
	return fmt.Errorf("insert: %w", domain.ErrStorageUnavailable)
}

func (unavailableFlashcards) List(context.Context, *uuid.UUID) ([]*domain.Flashcard, error) {
	return nil, fmt.Errorf("select: %w", domain.ErrStorageUnavailable)
}

func (unavailableFlashcards) Count(context.Context) (int64, error) {
	return 0, fmt.Errorf("count: %w", domain.ErrStorageUnavailable)
}

type unavailableStudySessions struct{}

func (unavailableStudySessions) Create(context.Context, *domain.StudySession) error {
	return fmt.Errorf("insert: %w", domain.ErrStorageUnavailable)
}

func (unavailableStudySessions) List(context.Context, *uuid.UUID) ([]*domain.StudySession, error) {
	return nil, fmt.Errorf("select: %w", domain.ErrStorageUnavailable)
}

func (unavailableStudySessions) Count(context.Context) (int64, error) {
	return 0, fmt.Errorf("count: %w", domain.ErrStorageUnavailable)
}

type published struct {
	userID  uuid.UUID
	ids     []string
	subject string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishFlashcardsCreated(userID uuid.UUID, ids []string, subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, ids: ids, subject: subject})
}

func newFlashcardService(t *testing.T, pub service.Publisher) (*service.FlashcardService, *repository.Repositories) {
	t.Helper()
	repos := memory.NewRepositories(memory.NewStore())
	gen := service.NewGenerator(nil, testGeneratorConfig, nil, nil)
	return service.NewFlashcardService(gen, repos.Flashcard, repos.StudySession, pub, nil, nil), repos
}

func createUser(t *testing.T, repos *repository.Repositories, name string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        uuid.New(),
		Username:  name,
		Email:     name + "@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}

func TestFlashcardService_GenerateAndSave(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, repos := newFlashcardService(t, pub)
	alice := createUser(t, repos, "alice")

	result, err := svc.GenerateAndSave(ctx, service.GenerateInput{
		Notes:    "Cats are mammals. Dogs are loyal. Birds can fly. Fish swim.",
		NumCards: 3,
		Owner:    &alice.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, service.SourceFallback, result.Source)
	assert.True(t, result.Saved)
	require.Len(t, result.Cards, 3)
	require.Len(t, result.IDs, 3)

	page, err := svc.ListFlashcards(ctx, &alice.ID)
	require.NoError(t, err)
	require.Len(t, page.Flashcards, 3)
	assert.False(t, page.Degraded)
	for _, card := range page.Flashcards {
		assert.Equal(t, domain.DefaultSubject, card.Subject)
		require.NotNil(t, card.UserID)
		assert.Equal(t, alice.ID, *card.UserID)
	}
	// most recent first, so the last generated card leads
	assert.Equal(t, result.IDs[2], page.Flashcards[0].ID.String())

	require.Len(t, pub.events, 1)
	assert.Equal(t, alice.ID, pub.events[0].userID)
	assert.Equal(t, result.IDs, pub.events[0].ids)
}

func TestFlashcardService_GenerateAndSave_Validation(t *testing.T) {
	svc, _ := newFlashcardService(t, nil)

	for _, notes := range []string{"", "   ", "\n\t"} {
		_, err := svc.GenerateAndSave(context.Background(), service.GenerateInput{Notes: notes})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.EqualError(t, err, "Please provide study notes")
	}
}

func TestFlashcardService_GenerateAndSave_Anonymous(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newFlashcardService(t, pub)

	result, err := svc.GenerateAndSave(ctx, service.GenerateInput{
		Notes:   "Water boils at 100C. Ice melts at 0C.",
		Subject: "Physics",
	})
	require.NoError(t, err)
	assert.True(t, result.Saved)

	page, err := svc.ListFlashcards(ctx, nil)
	require.NoError(t, err)
	require.Len(t, page.Flashcards, 2)
	assert.Nil(t, page.Flashcards[0].UserID)
	assert.Equal(t, "Physics", page.Flashcards[0].Subject)
	assert.Empty(t, pub.events, "unowned cards are not published")
}

func TestFlashcardService_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	gen := service.NewGenerator(nil, testGeneratorConfig, nil, nil)
	svc := service.NewFlashcardService(gen, unavailableFlashcards{}, unavailableStudySessions{}, nil, nil, nil)

	result, err := svc.GenerateAndSave(ctx, service.GenerateInput{Notes: "Still works. Without a database."})
	require.NoError(t, err)
	assert.False(t, result.Saved)
	assert.Len(t, result.Cards, 2)
	assert.Empty(t, result.IDs)

	page, err := svc.ListFlashcards(ctx, nil)
	require.NoError(t, err)
	assert.True(t, page.Degraded)
	assert.Empty(t, page.Flashcards)

	sessions, err := svc.ListStudySessions(ctx, nil)
	require.NoError(t, err)
	assert.True(t, sessions.Degraded)
	assert.Empty(t, sessions.StudySessions)

	_, err = svc.SaveStudySession(ctx, service.SaveStudySessionInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestFlashcardService_ListCancelledContextDegrades(t *testing.T) {
	svc, _ := newFlashcardService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := svc.ListFlashcards(ctx, nil)
	require.NoError(t, err)
	assert.True(t, page.Degraded)
	assert.Empty(t, page.Flashcards)

	sessions, err := svc.ListStudySessions(ctx, nil)
	require.NoError(t, err)
	assert.True(t, sessions.Degraded)
}

func TestFlashcardService_StudySessions(t *testing.T) {
	ctx := context.Background()
	svc, repos := newFlashcardService(t, nil)
	alice := createUser(t, repos, "alice")
	bob := createUser(t, repos, "bob")

	id, err := svc.SaveStudySession(ctx, service.SaveStudySessionInput{
		FlashcardIDs: []string{"c1", "missing"},
		Owner:        &alice.ID,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	_, err = svc.SaveStudySession(ctx, service.SaveStudySessionInput{Name: "Bob's", Owner: &bob.ID})
	require.NoError(t, err)

	page, err := svc.ListStudySessions(ctx, &alice.ID)
	require.NoError(t, err)
	require.Len(t, page.StudySessions, 1)
	assert.Equal(t, domain.DefaultSessionName, page.StudySessions[0].SessionName)
	assert.Equal(t, []string{"c1", "missing"}, []string(page.StudySessions[0].FlashcardIDs))

	page, err = svc.ListStudySessions(ctx, &bob.ID)
	require.NoError(t, err)
	require.Len(t, page.StudySessions, 1)
	assert.NotNil(t, page.StudySessions[0].FlashcardIDs)
	assert.Empty(t, page.StudySessions[0].FlashcardIDs)
}

func TestFlashcardService_Export(t *testing.T) {
	ctx := context.Background()
	svc, repos := newFlashcardService(t, nil)
	alice := createUser(t, repos, "alice")

	_, err := svc.SaveFlashcards(ctx, []domain.Card{{Question: "Q", Answer: "A"}}, "", &alice.ID)
	require.NoError(t, err)

	tests := []struct {
		format  string
		wantErr error
	}{
		{format: "json"},
		{format: "JSON"},
		{format: "pdf", wantErr: domain.ErrUnsupportedFormat},
		{format: "xml", wantErr: domain.ErrUnsupportedFormat},
		{format: "", wantErr: domain.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			page, err := svc.Export(ctx, tt.format, &alice.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, page.Flashcards, 1)
			assert.Equal(t, "Q", page.Flashcards[0].Question)
		})
	}
}

func TestFlashcardService_ExportChecksFormatFirst(t *testing.T) {
	gen := service.NewGenerator(nil, testGeneratorConfig, nil, nil)
	svc := service.NewFlashcardService(gen, unavailableFlashcards{}, unavailableStudySessions{}, nil, nil, nil)

	_, err := svc.Export(context.Background(), "pdf", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
