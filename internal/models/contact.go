package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is one device contact belonging to exactly one owner. At most one
// row exists per (owner, phone_number) pair; the sync operation is the only
// writer. IsMutual is derived unilaterally: the other number is a registered
// user, regardless of whether they saved the owner back.
type Contact struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerPhone  string    `gorm:"size:20;not null;uniqueIndex:idx_contacts_owner_number" json:"-"`
	PhoneNumber string    `gorm:"size:20;not null;uniqueIndex:idx_contacts_owner_number" json:"phone_number"`
	SavedName   string    `gorm:"size:100" json:"saved_name"`
	IsMutual    bool      `gorm:"default:false;index" json:"is_mutual"`
	AddedAt     time.Time `gorm:"not null" json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
