// Package memory keeps users, sessions, flashcards and study sessions in
// process memory. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/repository"
)

// Store owns all in-memory state. Every repository built from the same
// Store shares it under one lock, so read-modify-write sequences spanning
// several collections (registering a user, checking a card owner) are atomic.
type Store struct {
	mu            sync.RWMutex
	users         []*domain.User
	sessions      []*domain.UserSession
	flashcards    []*domain.Flashcard
	studySessions []*domain.StudySession
}

func NewStore() *Store {
	return &Store{}
}

func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		User:         &userRepository{store: store},
		Session:      &sessionRepository{store: store},
		Flashcard:    &flashcardRepository{store: store},
		StudySession: &studySessionRepository{store: store},
		Backend:      store,
	}
}

func (s *Store) Name() string {
	return "memory"
}

func (s *Store) Ping(ctx context.Context) error {
	return ctxErr(ctx)
}

// ctxErr reports a done context as unavailable storage, the same class of
// error the SQL backend returns when a query is cancelled.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// userExists must be called with s.mu held.
func (s *Store) userExists(id string) bool {
	for _, u := range s.users {
		if u.ID.String() == id {
			return true
		}
	}
	return false
}
