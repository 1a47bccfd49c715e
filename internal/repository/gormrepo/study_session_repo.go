package gormrepo

import (
	"context"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type studySessionRepository struct {
	db *gorm.DB
}

func NewStudySessionRepository(db *gorm.DB) *studySessionRepository {
	return &studySessionRepository{db: db}
}

func (r *studySessionRepository) Create(ctx context.Context, session *domain.StudySession) error {
	const op = "gormrepo.StudySession.Create"
	return wrapErr(op, r.db.WithContext(ctx).Omit("User").Create(session).Error)
}

func (r *studySessionRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.StudySession, error) {
	const op = "gormrepo.StudySession.List"

	q := r.db.WithContext(ctx).Order("created_at DESC")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}

	sessions := make([]*domain.StudySession, 0)
	if err := q.Find(&sessions).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return sessions, nil
}

func (r *studySessionRepository) Count(ctx context.Context) (int64, error) {
	const op = "gormrepo.StudySession.Count"

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.StudySession{}).Count(&count).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
