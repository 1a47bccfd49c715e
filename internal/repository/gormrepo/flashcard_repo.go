package gormrepo

import (
	"context"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type flashcardRepository struct {
	db *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *flashcardRepository {
	return &flashcardRepository{db: db}
}

// CreateBatch inserts the cards in one transaction.
func (r *flashcardRepository) CreateBatch(ctx context.Context, cards []*domain.Flashcard) error {
	const op = "gormrepo.Flashcard.CreateBatch"

	if len(cards) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User").Create(&cards).Error
	})
	return wrapErr(op, err)
}

func (r *flashcardRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]*domain.Flashcard, error) {
	const op = "gormrepo.Flashcard.List"

	q := r.db.WithContext(ctx).Order("created_at DESC")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}

	cards := make([]*domain.Flashcard, 0)
	if err := q.Find(&cards).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return cards, nil
}

func (r *flashcardRepository) Count(ctx context.Context) (int64, error) {
	const op = "gormrepo.Flashcard.Count"

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Flashcard{}).Count(&count).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return count, nil
}
