package services

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/timeline"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is used when the caller does not ask for one.
	DefaultPageSize = 20
	// MaxPageSize caps a single timeline page.
	MaxPageSize = 100
	// snapshotLimit bounds the realtime resnapshot delivered to subscribers.
	snapshotLimit = 50
)

// TimelineService reads and rebuilds the per-recipient materialized feed.
// The UI only ever sees this replica, never the fyis table directly.
type TimelineService struct {
	db  *gorm.DB
	hub *timeline.Hub
}

func NewTimelineService(db *gorm.DB, hub *timeline.Hub) *TimelineService {
	return &TimelineService{db: db, hub: hub}
}

// GetUserTimeline returns the non-expired replica rows for phone, newest
// first, paginated by an opaque cursor. Store failures degrade to an empty
// page so a flaky read never breaks the feed screen.
func (s *TimelineService) GetUserTimeline(phone string, pageSize int, cursor string) dto.TimelinePage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	q := s.db.Where("user_phone = ? AND expires_at > ?", phone, time.Now())

	if cursor != "" {
		createdAt, fyiID, err := decodeCursor(cursor)
		if err != nil {
			slog.Warn("invalid timeline cursor, starting from top", "phone", phone, "error", err)
		} else {
			q = q.Where("created_at < ? OR (created_at = ? AND fyi_id < ?)", createdAt, createdAt, fyiID)
		}
	}

	var items []models.TimelineItem
	err := q.Order("created_at DESC").Order("fyi_id DESC").Limit(pageSize).Find(&items).Error
	if err != nil {
		slog.Error("timeline read failed", "phone", phone, "error", err)
		return dto.TimelinePage{Items: []models.TimelineItem{}}
	}

	page := dto.TimelinePage{Items: items}
	if len(items) == pageSize {
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.FYIID)
	}
	return page
}

// Snapshot returns the bounded, sorted view delivered to realtime
// subscribers. Consumers replace their whole in-memory feed with it.
func (s *TimelineService) Snapshot(phone string) []models.TimelineItem {
	var items []models.TimelineItem
	err := s.db.Where("user_phone = ? AND expires_at > ?", phone, time.Now()).
		Order("created_at DESC").Order("fyi_id DESC").
		Limit(snapshotLimit).
		Find(&items).Error
	if err != nil {
		slog.Error("timeline snapshot failed", "phone", phone, "error", err)
		return []models.TimelineItem{}
	}
	return items
}

// Subscribe delivers the current snapshot immediately and again after every
// change to phone's timeline. The returned function cancels the subscription.
func (s *TimelineService) Subscribe(phone string, onChange func([]models.TimelineItem)) (unsubscribe func()) {
	unsub := s.hub.Subscribe(phone, func() {
		onChange(s.Snapshot(phone))
	})
	onChange(s.Snapshot(phone))
	return unsub
}

// Rebuild recomputes phone's replica from scratch: every existing row is
// dropped, then the active, non-expired broadcast FYIs of phone's mutual
// contacts are fanned back in. Group-targeted FYIs are not replayed; group
// membership is not re-resolved here. Meant as a correction step after
// contact sync finds new mutuals, not a routine path.
func (s *TimelineService) Rebuild(phone string) error {
	var mutuals []models.Contact
	if err := s.db.Where("owner_phone = ? AND is_mutual = true", phone).Find(&mutuals).Error; err != nil {
		return fmt.Errorf("load mutual contacts: %w", err)
	}
	mutualPhones := make([]string, 0, len(mutuals))
	for _, c := range mutuals {
		mutualPhones = append(mutualPhones, c.PhoneNumber)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_phone = ?", phone).Delete(&models.TimelineItem{}).Error; err != nil {
			return err
		}

		for _, chunk := range chunkStrings(mutualPhones, lookupBatchSize) {
			var fyis []models.FYI
			err := tx.Where("sender_phone IN ? AND is_active = true AND expires_at > ? AND target_type = ?",
				chunk, time.Now(), models.TargetAll).
				Find(&fyis).Error
			if err != nil {
				return err
			}

			for _, fyi := range fyis {
				item := models.TimelineItem{
					UserPhone:     phone,
					FYIID:         fyi.ID,
					SenderPhone:   fyi.SenderPhone,
					SenderName:    fyi.SenderName,
					Text:          fyi.Text,
					TargetType:    fyi.TargetType,
					CreatedAt:     fyi.CreatedAt,
					ExpiresAt:     fyi.ExpiresAt,
					ReactionCount: fyi.ReactionCount,
					SeenCount:     fyi.SeenCount,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild timeline: %w", err)
	}

	s.hub.Notify(phone)
	return nil
}

// Cursor format: base64("createdAtUnixNano|fyiID"). Opaque to clients.

func encodeCursor(createdAt time.Time, fyiID uuid.UUID) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + "|" + fyiID.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor id: %w", err)
	}
	return time.Unix(0, nanos), id, nil
}

func chunkStrings(values []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(values); i += size {
		end := i + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[i:end])
	}
	return chunks
}
