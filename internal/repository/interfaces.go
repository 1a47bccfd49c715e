package repository

import (
	"context"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
)

// Implementations report backend failures wrapped around
// domain.ErrStorageUnavailable, missing rows as domain.ErrNotFound and
// unique violations on users as domain.ErrDuplicateIdentity.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	// GetLiveByToken returns the session holding token if it has not expired at now.
	GetLiveByToken(ctx context.Context, token string, now time.Time) (*domain.UserSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type FlashcardRepository interface {
	CreateBatch(ctx context.Context, cards []*domain.Flashcard) error
	// List returns flashcards most recent first. A non-nil ownerID restricts
	// the result to that owner's cards.
	List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Flashcard, error)
	Count(ctx context.Context) (int64, error)
}

type StudySessionRepository interface {
	Create(ctx context.Context, session *domain.StudySession) error
	List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.StudySession, error)
	Count(ctx context.Context) (int64, error)
}

// Backend is the storage engine behind a set of repositories.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Flashcard    FlashcardRepository
	StudySession StudySessionRepository
	Backend      Backend
}
