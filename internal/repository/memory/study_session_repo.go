package memory

import (
	"context"
	"fmt"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type studySessionRepository struct {
	store *Store
}

func (r *studySessionRepository) Create(ctx context.Context, session *domain.StudySession) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if session.UserID != nil && !r.store.userExists(session.UserID.String()) {
		return fmt.Errorf("study session owner %s: %w", session.UserID, domain.ErrNotFound)
	}

	r.store.studySessions = append(r.store.studySessions, cloneStudySession(session))
	return nil
}

func (r *studySessionRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.StudySession, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.StudySession, 0)
	for i := len(r.store.studySessions) - 1; i >= 0; i-- {
		s := r.store.studySessions[i]
		if ownerID != nil && (s.UserID == nil || *s.UserID != *ownerID) {
			continue
		}
		result = append(result, cloneStudySession(s))
	}
	return result, nil
}

func (r *studySessionRepository) Count(ctx context.Context) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.studySessions)), nil
}

func cloneStudySession(s *domain.StudySession) *domain.StudySession {
	c := *s
	c.User = nil
	if s.UserID != nil {
		id := *s.UserID
		c.UserID = &id
	}
	c.FlashcardIDs = append(datatypes.JSONSlice[string]{}, s.FlashcardIDs...)
	return &c
}
