package gormrepo

import (
	"context"
	"time"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const op = "gormrepo.User.Create"
	return wrapErr(op, r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "gormrepo.User.GetByID"

	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "gormrepo.User.GetByUsername"

	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const op = "gormrepo.User.ExistsByUsernameOrEmail"

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(op, err)
	}
	return count > 0, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "gormrepo.User.UpdateLastLogin"

	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrapErr(op, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	const op = "gormrepo.User.Count"

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
