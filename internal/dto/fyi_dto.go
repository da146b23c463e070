package dto

import (
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/google/uuid"
)

type UpdateUserRequest struct {
	Name          *string `json:"name,omitempty"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
	ReadReceipts  *bool   `json:"read_receipts,omitempty"`
}

type DeviceContact struct {
	PhoneNumber string `json:"phone_number"`
	SavedName   string `json:"saved_name"`
}

type SyncContactsRequest struct {
	Contacts []DeviceContact `json:"contacts"`
}

type ContactSyncResponse struct {
	Success             bool   `json:"success"`
	NewMutualContacts   int    `json:"new_mutual_contacts"`
	TotalMutualContacts int    `json:"total_mutual_contacts"`
	Error               string `json:"error,omitempty"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Emoji   string   `json:"emoji,omitempty"`
	Members []string `json:"members"`
}

type UpdateGroupRequest struct {
	Name    *string   `json:"name,omitempty"`
	Emoji   *string   `json:"emoji,omitempty"`
	Members *[]string `json:"members,omitempty"`
}

type CreateFYIRequest struct {
	Text          string     `json:"text"`
	TargetType    string     `json:"target_type"`
	TargetGroupID *uuid.UUID `json:"target_group_id,omitempty"`
}

type CreateFYIResponse struct {
	Success bool       `json:"success"`
	FYIID   *uuid.UUID `json:"fyi_id,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

type TimelinePage struct {
	Items      []models.TimelineItem `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}
