package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultSubject     = "General"
	DefaultSessionName = "Study Session"
)

// Card is a generated question/answer pair before it is persisted.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Flashcard struct {
	ID        uuid.UUID  `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:varchar(36);index"`
	Question  string     `json:"question" gorm:"type:text;not null"`
	Answer    string     `json:"answer" gorm:"type:text;not null"`
	Subject   string     `json:"subject" gorm:"size:100"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// StudySession is a named, ordered grouping of flashcard references.
// The referenced flashcards are not required to exist.
type StudySession struct {
	ID           uuid.UUID                   `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       *uuid.UUID                  `json:"user_id,omitempty" gorm:"type:varchar(36);index"`
	SessionName  string                      `json:"session_name" gorm:"size:200"`
	FlashcardIDs datatypes.JSONSlice[string] `json:"flashcard_ids" gorm:"column:flashcard_ids"`
	CreatedAt    time.Time                   `json:"created_at" gorm:"index"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
