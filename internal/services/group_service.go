package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound = errors.New("group not found")
)

// GroupService manages user-owned member lists. Members are plain phone
// numbers; nothing checks that they exist as users.
type GroupService struct {
	db *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{db: db}
}

func (s *GroupService) CreateGroup(owner string, req *dto.CreateGroupRequest) (uuid.UUID, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return uuid.Nil, errors.New("group name is required")
	}

	group := models.Group{
		OwnerPhone: owner,
		Name:       name,
		Emoji:      req.Emoji,
	}
	if err := group.SetMembers(req.Members); err != nil {
		return uuid.Nil, fmt.Errorf("encode members: %w", err)
	}

	if err := s.db.Create(&group).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group.ID, nil
}

// GetUserGroups lists the owner's groups ordered by name. Store failures
// degrade to an empty list.
func (s *GroupService) GetUserGroups(owner string) []models.Group {
	var groups []models.Group
	err := s.db.Where("owner_phone = ?", owner).Order("name ASC").Find(&groups).Error
	if err != nil {
		slog.Error("group list read failed", "owner", owner, "error", err)
		return []models.Group{}
	}
	return groups
}

func (s *GroupService) GetGroup(owner string, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := s.db.Where("id = ? AND owner_phone = ?", groupID, owner).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// UpdateGroup applies only the fields present in the request. A membership
// change recomputes member_count in the same write.
func (s *GroupService) UpdateGroup(owner string, groupID uuid.UUID, req *dto.UpdateGroupRequest) error {
	group, err := s.GetGroup(owner, groupID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return errors.New("group name is required")
		}
		updates["name"] = name
	}
	if req.Emoji != nil {
		updates["emoji"] = *req.Emoji
	}
	if req.Members != nil {
		if err := group.SetMembers(*req.Members); err != nil {
			return fmt.Errorf("encode members: %w", err)
		}
		updates["members"] = group.Members
		updates["member_count"] = group.MemberCount
	}

	return s.db.Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error
}

func (s *GroupService) DeleteGroup(owner string, groupID uuid.UUID) error {
	group, err := s.GetGroup(owner, groupID)
	if err != nil {
		return err
	}
	return s.db.Delete(group).Error
}

// TouchLastUsed notes that a group was just targeted by an FYI.
func (s *GroupService) TouchLastUsed(groupID uuid.UUID) {
	s.db.Model(&models.Group{}).Where("id = ?", groupID).Update("last_used", time.Now())
}
