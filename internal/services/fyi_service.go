package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/timeline"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrFYINotFound = errors.New("fyi not found")
)

const maxFYITextLen = 280

// FYIService owns the update records, the single-slot active index, and the
// fan-out step that materializes each update into recipient timelines.
type FYIService struct {
	db  *gorm.DB
	hub *timeline.Hub
}

func NewFYIService(db *gorm.DB, hub *timeline.Hub) *FYIService {
	return &FYIService{db: db, hub: hub}
}

// CreateFYI posts a new update for sender. Deactivating the previous update,
// creating the record, and overwriting the active slot commit together; the
// fan-out is a second commit. A crash between the two leaves an update with
// an empty fan-out, which the next rebuild repairs.
func (s *FYIService) CreateFYI(sender string, req *dto.CreateFYIRequest) dto.CreateFYIResponse {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return dto.CreateFYIResponse{Error: "text is required"}
	}
	if len(text) > maxFYITextLen {
		return dto.CreateFYIResponse{Error: fmt.Sprintf("text exceeds %d characters", maxFYITextLen)}
	}
	switch req.TargetType {
	case models.TargetAll:
	case models.TargetGroup:
		if req.TargetGroupID == nil {
			return dto.CreateFYIResponse{Error: "target_group_id is required for group targets"}
		}
	default:
		return dto.CreateFYIResponse{Error: "target_type must be all or group"}
	}

	var senderName string
	var senderUser models.User
	if err := s.db.First(&senderUser, "phone = ?", sender).Error; err == nil {
		senderName = senderUser.Name
	}

	now := time.Now()
	fyi := models.FYI{
		SenderPhone:   sender,
		SenderName:    senderName,
		Text:          text,
		TargetType:    req.TargetType,
		TargetGroupID: req.TargetGroupID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.FYIExpiry),
		IsActive:      true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// End the live status of the previous update without deleting it.
		var slot models.ActiveFYI
		if err := tx.First(&slot, "user_phone = ?", sender).Error; err == nil {
			if err := tx.Model(&models.FYI{}).Where("id = ?", slot.FYIID).
				Update("is_active", false).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&fyi).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"fyi_id", "updated_at"}),
		}).Create(&models.ActiveFYI{
			UserPhone: sender,
			FYIID:     fyi.ID,
			UpdatedAt: now,
		}).Error
	})
	if err != nil {
		slog.Error("create fyi failed", "phone", sender, "error", err)
		return dto.CreateFYIResponse{Error: "failed to create fyi"}
	}

	if err := s.fanOut(&fyi); err != nil {
		slog.Error("fyi fan-out failed", "phone", sender, "fyi_id", fyi.ID, "error", err)
		return dto.CreateFYIResponse{Error: "failed to deliver fyi"}
	}

	return dto.CreateFYIResponse{Success: true, FYIID: &fyi.ID}
}

// fanOut writes one timeline replica row per resolved recipient, then wakes
// their subscriptions.
func (s *FYIService) fanOut(fyi *models.FYI) error {
	recipients, err := s.resolveAudience(fyi)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, recipient := range recipients {
			item := models.TimelineItem{
				UserPhone:   recipient,
				FYIID:       fyi.ID,
				SenderPhone: fyi.SenderPhone,
				SenderName:  fyi.SenderName,
				Text:        fyi.Text,
				TargetType:  fyi.TargetType,
				FromGroupID: fyi.TargetGroupID,
				CreatedAt:   fyi.CreatedAt,
				ExpiresAt:   fyi.ExpiresAt,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fan-out write: %w", err)
	}

	s.hub.NotifyMany(recipients)
	return nil
}

// resolveAudience maps the target descriptor to concrete recipient phones:
// broadcast goes to every mutual contact of the sender, group targets to the
// stored member list of the sender's group.
func (s *FYIService) resolveAudience(fyi *models.FYI) ([]string, error) {
	if fyi.TargetType == models.TargetAll {
		var mutuals []models.Contact
		err := s.db.Where("owner_phone = ? AND is_mutual = true", fyi.SenderPhone).Find(&mutuals).Error
		if err != nil {
			return nil, fmt.Errorf("resolve mutual contacts: %w", err)
		}
		phones := make([]string, 0, len(mutuals))
		for _, c := range mutuals {
			phones = append(phones, c.PhoneNumber)
		}
		return phones, nil
	}

	var group models.Group
	err := s.db.Where("id = ? AND owner_phone = ?", fyi.TargetGroupID, fyi.SenderPhone).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("resolve group: %w", err)
	}
	return group.MemberList(), nil
}

func (s *FYIService) GetFYI(fyiID uuid.UUID) (*models.FYI, error) {
	var fyi models.FYI
	if err := s.db.First(&fyi, "id = ?", fyiID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFYINotFound
		}
		return nil, err
	}
	return &fyi, nil
}

// GetUserActiveFYI follows the active slot to the user's live update.
// Returns ErrFYINotFound when the user has no live update.
func (s *FYIService) GetUserActiveFYI(phone string) (*models.FYI, error) {
	var slot models.ActiveFYI
	if err := s.db.First(&slot, "user_phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFYINotFound
		}
		return nil, err
	}
	return s.GetFYI(slot.FYIID)
}

// Reactions lists all reactions on an FYI. Store failures degrade to empty.
func (s *FYIService) Reactions(fyiID uuid.UUID) []models.Reaction {
	var reactions []models.Reaction
	err := s.db.Where("fyi_id = ?", fyiID).Order("reacted_at ASC").Find(&reactions).Error
	if err != nil {
		slog.Error("reactions read failed", "fyi_id", fyiID, "error", err)
		return []models.Reaction{}
	}
	return reactions
}

// SeenBy lists who has seen an FYI. Store failures degrade to empty.
func (s *FYIService) SeenBy(fyiID uuid.UUID) []models.SeenBy {
	var seen []models.SeenBy
	err := s.db.Where("fyi_id = ?", fyiID).Order("seen_at ASC").Find(&seen).Error
	if err != nil {
		slog.Error("seen-by read failed", "fyi_id", fyiID, "error", err)
		return []models.SeenBy{}
	}
	return seen
}
