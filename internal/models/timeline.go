package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimelineItem is the per-recipient denormalized copy of an FYI, written
// during fan-out. One row per (recipient, fyi). The two recipient-local flags
// are mutated in place by seen/react actions; rows are only deleted wholesale
// during a rebuild.
type TimelineItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	UserPhone     string     `gorm:"size:20;not null;uniqueIndex:idx_timeline_user_fyi;index:idx_timeline_user_expiry" json:"-"`
	FYIID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_timeline_user_fyi" json:"fyi_id"`
	SenderPhone   string     `gorm:"size:20;not null" json:"sender_phone"`
	SenderName    string     `gorm:"size:100" json:"sender_name,omitempty"`
	Text          string     `gorm:"size:280;not null" json:"text"`
	TargetType    string     `gorm:"size:10;not null" json:"target_type"`
	FromGroupID   *uuid.UUID `gorm:"type:uuid" json:"from_group_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	ExpiresAt     time.Time  `gorm:"not null;index:idx_timeline_user_expiry" json:"expires_at"`
	ReactionCount int        `gorm:"default:0" json:"reaction_count"`
	SeenCount     int        `gorm:"default:0" json:"seen_count"`
	HasReacted    bool       `gorm:"default:false" json:"has_reacted"`
	HasSeen       bool       `gorm:"default:false" json:"has_seen"`
}

func (t *TimelineItem) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (TimelineItem) TableName() string {
	return "timeline_items"
}
