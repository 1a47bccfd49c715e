package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"user_id" gorm:"type:varchar(36);primaryKey"`
	Username     string     `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Salt         string     `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// UserSession is a login session addressed by an opaque bearer token.
type UserSession struct {
	ID           uuid.UUID `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:varchar(36);not null;index"`
	SessionToken string    `json:"-" gorm:"size:255;uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Live reports whether the session is still usable at now.
func (s *UserSession) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// Identity is what a resolved bearer token tells us about the caller.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (u *User) Identity() *Identity {
	return &Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
