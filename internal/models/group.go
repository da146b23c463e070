package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Group is a named member list owned by a single user. Members are raw phone
// numbers with no referential check against users. MemberCount is derived and
// must be recomputed whenever Members changes.
type Group struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"group_id"`
	OwnerPhone  string         `gorm:"size:20;not null;index" json:"owner_phone"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Emoji       string         `gorm:"size:10" json:"emoji,omitempty"`
	Members     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"members"`
	MemberCount int            `gorm:"default:0" json:"member_count"`
	LastUsed    *time.Time     `json:"last_used,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// MemberList decodes the JSONB member set. A corrupt column yields an empty
// list rather than an error; group audiences degrade to no recipients.
func (g *Group) MemberList() []string {
	var members []string
	if err := json.Unmarshal(g.Members, &members); err != nil {
		return nil
	}
	return members
}

// SetMembers stores the member set and keeps MemberCount in step with it.
func (g *Group) SetMembers(members []string) error {
	b, err := json.Marshal(members)
	if err != nil {
		return err
	}
	g.Members = datatypes.JSON(b)
	g.MemberCount = len(members)
	return nil
}
