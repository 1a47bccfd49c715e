package gormrepo

import (
	"errors"
	"fmt"

	"github.com/dom/study-buddy/internal/domain"
	"gorm.io/gorm"
)

// wrapErr maps gorm errors onto the domain error set.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateIdentity)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	}
}
