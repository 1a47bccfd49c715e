package memory

import (
	"context"
	"fmt"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
)

type flashcardRepository struct {
	store *Store
}

// CreateBatch stores all cards or none.
func (r *flashcardRepository) CreateBatch(ctx context.Context, cards []*domain.Flashcard) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range cards {
		if c.UserID != nil && !r.store.userExists(c.UserID.String()) {
			return fmt.Errorf("flashcard owner %s: %w", c.UserID, domain.ErrNotFound)
		}
	}

	for _, c := range cards {
		r.store.flashcards = append(r.store.flashcards, cloneFlashcard(c))
	}
	return nil
}

func (r *flashcardRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Flashcard, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Flashcard, 0)
	for i := len(r.store.flashcards) - 1; i >= 0; i-- {
		c := r.store.flashcards[i]
		if ownerID != nil && (c.UserID == nil || *c.UserID != *ownerID) {
			continue
		}
		result = append(result, cloneFlashcard(c))
	}
	return result, nil
}

func (r *flashcardRepository) Count(ctx context.Context) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.flashcards)), nil
}

func cloneFlashcard(f *domain.Flashcard) *domain.Flashcard {
	c := *f
	c.User = nil
	if f.UserID != nil {
		id := *f.UserID
		c.UserID = &id
	}
	return &c
}
