// Package gormrepo implements the repositories on top of gorm for
// PostgreSQL and MySQL.
package gormrepo

import (
	"context"
	"fmt"

	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens a database for the given driver ("postgres" or
// "mysql"). The connection is not checked until first use so that the
// server can start while the database is down.
func NewConnection(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.New(mysql.Config{
			DSN:                       dsn,
			SkipInitializeWithVersion: true,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		TranslateError:       true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Flashcard{},
		&domain.StudySession{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Flashcard:    NewFlashcardRepository(db),
		StudySession: NewStudySessionRepository(db),
		Backend:      &backend{db: db},
	}
}

type backend struct {
	db *gorm.DB
}

func (b *backend) Name() string {
	return b.db.Dialector.Name()
}

func (b *backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return wrapErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

func (b *backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
