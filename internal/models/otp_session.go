package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPSession holds one pending phone-verification challenge. Only the bcrypt
// hash of the code is stored. A phone has at most one live session; requesting
// a new code replaces the previous session.
type OTPSession struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	Phone         string     `gorm:"size:20;not null;index" json:"-"`
	CodeHash      string     `gorm:"size:100;not null" json:"-"`
	ExpiresAt     time.Time  `gorm:"not null" json:"-"`
	Attempts      int        `gorm:"default:0" json:"-"`
	LastAttemptAt *time.Time `json:"-"`
	Consumed      bool       `gorm:"default:false;index" json:"-"`
	RequestIP     *string    `gorm:"size:45" json:"-"`
	CreatedAt     time.Time  `json:"-"`
}

func (s *OTPSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
