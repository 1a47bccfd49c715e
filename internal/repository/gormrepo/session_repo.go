package gormrepo

import (
	"context"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	const op = "gormrepo.Session.Create"
	return wrapErr(op, r.db.WithContext(ctx).Omit("User").Create(session).Error)
}

func (r *sessionRepository) GetLiveByToken(ctx context.Context, token string, now time.Time) (*domain.UserSession, error) {
	const op = "gormrepo.Session.GetLiveByToken"

	var session domain.UserSession
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("session_token = ? AND expires_at > ?", token, now).
		First(&session).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const op = "gormrepo.Session.DeleteByToken"
	return wrapErr(op, r.db.WithContext(ctx).Delete(&domain.UserSession{}, "session_token = ?", token).Error)
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "gormrepo.Session.DeleteExpired"

	res := r.db.WithContext(ctx).Delete(&domain.UserSession{}, "expires_at <= ?", now)
	if res.Error != nil {
		return 0, wrapErr(op, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) Count(ctx context.Context) (int64, error) {
	const op = "gormrepo.Session.Count"

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.UserSession{}).Count(&count).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
