package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Target types for an FYI.
const (
	TargetAll   = "all"
	TargetGroup = "group"
)

// FYIExpiry is the fixed lifetime of every FYI, stamped once at creation.
const FYIExpiry = 24 * time.Hour

// AllowedEmojis is the fixed reaction set.
var AllowedEmojis = []string{"❤️", "😂", "👍", "😮", "😢", "😡"}

// IsAllowedEmoji reports whether emoji belongs to the fixed reaction set.
func IsAllowedEmoji(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// FYI is a single ephemeral status update. ExpiresAt is CreatedAt + FYIExpiry
// and is never recalculated. Only the counters mutate after creation, except
// for IsActive which flips to false when the sender posts their next FYI.
type FYI struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"fyi_id"`
	SenderPhone   string     `gorm:"size:20;not null;index" json:"sender_phone"`
	SenderName    string     `gorm:"size:100" json:"sender_name,omitempty"`
	Text          string     `gorm:"size:280;not null" json:"text"`
	TargetType    string     `gorm:"size:10;not null" json:"target_type"`
	TargetGroupID *uuid.UUID `gorm:"type:uuid" json:"target_group_id,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null;index" json:"expires_at"`
	ReactionCount int        `gorm:"default:0" json:"reaction_count"`
	SeenCount     int        `gorm:"default:0" json:"seen_count"`
	IsActive      bool       `gorm:"default:true;index" json:"is_active"`
}

func (f *FYI) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (FYI) TableName() string {
	return "fyis"
}

// ActiveFYI is the single-slot pointer to a user's currently live FYI,
// overwritten on every new post. It is an index, not a history.
type ActiveFYI struct {
	UserPhone string    `gorm:"primaryKey;size:20" json:"user_phone"`
	FYIID     uuid.UUID `gorm:"type:uuid;not null" json:"fyi_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ActiveFYI) TableName() string {
	return "active_fyis"
}

// Reaction is keyed by (fyi, user): a user reacting again with a different
// emoji replaces their earlier reaction instead of adding a second row.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	FYIID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_fyi_user" json:"fyi_id"`
	UserPhone string    `gorm:"size:20;not null;uniqueIndex:idx_reactions_fyi_user" json:"user_phone"`
	UserName  string    `gorm:"size:100" json:"user_name,omitempty"`
	Emoji     string    `gorm:"size:10;not null" json:"emoji"`
	ReactedAt time.Time `gorm:"not null" json:"reacted_at"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SeenBy is write-once per (fyi, user); repeated marks must not create a
// second row or bump the counter again.
type SeenBy struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	FYIID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seen_by_fyi_user" json:"fyi_id"`
	UserPhone string    `gorm:"size:20;not null;uniqueIndex:idx_seen_by_fyi_user" json:"user_phone"`
	SeenAt    time.Time `gorm:"not null" json:"seen_at"`
}

func (s *SeenBy) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (SeenBy) TableName() string {
	return "seen_by"
}
