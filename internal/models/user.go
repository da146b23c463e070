package models

import (
	"time"
)

// User is keyed by phone number, which doubles as the user id everywhere.
// Name stays empty until the onboarding name step completes.
type User struct {
	Phone              string     `gorm:"primaryKey;size:20" json:"phone"`
	Name               string     `gorm:"size:100" json:"name,omitempty"`
	AvatarURL          string     `gorm:"size:500" json:"avatar_url,omitempty"`
	Notifications      bool       `gorm:"default:true" json:"notifications"`
	ReadReceipts       bool       `gorm:"default:true" json:"read_receipts"`
	ContactsLastSynced *time.Time `json:"contacts_last_synced,omitempty"`
	LastSeen           time.Time  `json:"last_seen"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
