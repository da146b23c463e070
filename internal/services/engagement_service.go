package services

import (
	"errors"
	"time"

	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/timeline"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedEmoji = errors.New("unsupported reaction emoji")
)

// EngagementService keeps the per-update reaction and seen-by sets and their
// aggregate counters in sync, echoing the recipient-local flags into the
// timeline replica.
type EngagementService struct {
	db  *gorm.DB
	hub *timeline.Hub
}

func NewEngagementService(db *gorm.DB, hub *timeline.Hub) *EngagementService {
	return &EngagementService{db: db, hub: hub}
}

// AddReaction upserts the caller's reaction keyed by user: reacting again
// with a different emoji replaces the earlier reaction, and the counter only
// moves when a reaction row first appears. A same-emoji repeat is a no-op.
func (s *EngagementService) AddReaction(fyiID uuid.UUID, phone, emoji string) error {
	if !models.IsAllowedEmoji(emoji) {
		return ErrUnsupportedEmoji
	}

	var fyi models.FYI
	if err := s.db.First(&fyi, "id = ?", fyiID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFYINotFound
		}
		return err
	}

	var userName string
	var user models.User
	if err := s.db.First(&user, "phone = ?", phone).Error; err == nil {
		userName = user.Name
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Reaction
		err := tx.Where("fyi_id = ? AND user_phone = ?", fyiID, phone).First(&existing).Error
		switch {
		case err == nil && existing.Emoji == emoji:
			return nil
		case err == nil:
			return tx.Model(&existing).Updates(map[string]interface{}{
				"emoji":      emoji,
				"reacted_at": now,
			}).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		reaction := models.Reaction{
			FYIID:     fyiID,
			UserPhone: phone,
			UserName:  userName,
			Emoji:     emoji,
			ReactedAt: now,
		}
		if err := tx.Create(&reaction).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.FYI{}).Where("id = ?", fyiID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&models.TimelineItem{}).
			Where("user_phone = ? AND fyi_id = ?", phone, fyiID).
			Update("has_reacted", true).Error
	})
	if err != nil {
		return err
	}

	s.hub.Notify(phone)
	return nil
}

// RemoveReaction deletes the caller's reaction if one exists. The counter is
// decremented only when a row was actually removed and never goes below zero.
func (s *EngagementService) RemoveReaction(fyiID uuid.UUID, phone string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("fyi_id = ? AND user_phone = ?", fyiID, phone).Delete(&models.Reaction{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected > 0 {
			err := tx.Model(&models.FYI{}).Where("id = ?", fyiID).
				UpdateColumn("reaction_count",
					gorm.Expr("CASE WHEN reaction_count > 0 THEN reaction_count - 1 ELSE 0 END")).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.TimelineItem{}).
			Where("user_phone = ? AND fyi_id = ?", phone, fyiID).
			Update("has_reacted", false).Error
	})
	if err != nil {
		return err
	}

	s.hub.Notify(phone)
	return nil
}

// MarkSeen records that phone viewed the update. Idempotent: the seen counter
// moves exactly once per (fyi, user) no matter how often the UI fires it.
func (s *EngagementService) MarkSeen(fyiID uuid.UUID, phone string) error {
	var fyi models.FYI
	if err := s.db.First(&fyi, "id = ?", fyiID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFYINotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.SeenBy
		err := tx.Where("fyi_id = ? AND user_phone = ?", fyiID, phone).First(&existing).Error
		if err == nil {
			// Already counted; just make sure the replica flag agrees.
			return tx.Model(&models.TimelineItem{}).
				Where("user_phone = ? AND fyi_id = ?", phone, fyiID).
				Update("has_seen", true).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		seen := models.SeenBy{
			FYIID:     fyiID,
			UserPhone: phone,
			SeenAt:    time.Now(),
		}
		if err := tx.Create(&seen).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.FYI{}).Where("id = ?", fyiID).
			UpdateColumn("seen_count", gorm.Expr("seen_count + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&models.TimelineItem{}).
			Where("user_phone = ? AND fyi_id = ?", phone, fyiID).
			Update("has_seen", true).Error
	})
	if err != nil {
		return err
	}

	s.hub.Notify(phone)
	return nil
}
