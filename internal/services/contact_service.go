package services

import (
	"log/slog"
	"time"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"gorm.io/gorm"
)

const (
	// lookupBatchSize caps the key count of one equality lookup. Document
	// stores commonly limit IN queries to 10 keys; the sync algorithm is
	// written against that budget and keeps it here.
	lookupBatchSize = 10

	// syncInterval is how stale contacts_last_synced must be before another
	// full device scan is worth doing.
	syncInterval = 24 * time.Hour
)

// ContactService persists a user's device contacts and computes the mutual
// flag. Mutuality is unilateral here: a contact is mutual iff its number is a
// registered user. The other side's contact list is never consulted.
type ContactService struct {
	db       *gorm.DB
	timeline *TimelineService
}

func NewContactService(db *gorm.DB, timeline *TimelineService) *ContactService {
	return &ContactService{db: db, timeline: timeline}
}

// SyncContacts upserts the owner's contact set from a device scan, counts
// newly-mutual relationships, and refreshes contacts_last_synced, all in one
// transaction. A rebuild is triggered when new mutuals appeared, since they
// change who may show up in the owner's broadcast feed.
func (s *ContactService) SyncContacts(owner string, deviceContacts []dto.DeviceContact) dto.ContactSyncResponse {
	phones := make([]string, 0, len(deviceContacts))
	for _, c := range deviceContacts {
		phones = append(phones, c.PhoneNumber)
	}

	registered, err := s.registeredUsers(phones)
	if err != nil {
		slog.Error("contact sync failed", "owner", owner, "error", err)
		return dto.ContactSyncResponse{Error: "failed to sync contacts"}
	}

	var existing []models.Contact
	if err := s.db.Where("owner_phone = ?", owner).Find(&existing).Error; err != nil {
		slog.Error("contact sync failed", "owner", owner, "error", err)
		return dto.ContactSyncResponse{Error: "failed to sync contacts"}
	}
	existingByNumber := make(map[string]models.Contact, len(existing))
	for _, c := range existing {
		existingByNumber[c.PhoneNumber] = c
	}

	now := time.Now()
	newMutual := 0

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, device := range deviceContacts {
			isMutual := registered[device.PhoneNumber]
			prev, existed := existingByNumber[device.PhoneNumber]

			if isMutual && (!existed || !prev.IsMutual) {
				newMutual++
			}

			if existed {
				err := tx.Model(&models.Contact{}).Where("id = ?", prev.ID).
					Updates(map[string]interface{}{
						"saved_name": device.SavedName,
						"is_mutual":  isMutual,
						"updated_at": now,
					}).Error
				if err != nil {
					return err
				}
				continue
			}

			contact := models.Contact{
				OwnerPhone:  owner,
				PhoneNumber: device.PhoneNumber,
				SavedName:   device.SavedName,
				IsMutual:    isMutual,
				AddedAt:     now,
			}
			if err := tx.Create(&contact).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.User{}).Where("phone = ?", owner).
			Update("contacts_last_synced", now).Error
	})
	if err != nil {
		slog.Error("contact sync failed", "owner", owner, "error", err)
		return dto.ContactSyncResponse{Error: "failed to sync contacts"}
	}

	if newMutual > 0 {
		if err := s.timeline.Rebuild(owner); err != nil {
			// The sync itself committed; the feed catches up on the next rebuild.
			slog.Error("timeline rebuild after sync failed", "owner", owner, "error", err)
		}
	}

	return dto.ContactSyncResponse{
		Success:             true,
		NewMutualContacts:   newMutual,
		TotalMutualContacts: len(registered),
	}
}

// ShouldSync reports whether the owner's contacts are due for another sync.
// Call sites doing device I/O must honor this before scanning. Unknown state
// defaults to true.
func (s *ContactService) ShouldSync(owner string) bool {
	var user models.User
	if err := s.db.First(&user, "phone = ?", owner).Error; err != nil {
		return true
	}
	if user.ContactsLastSynced == nil {
		return true
	}
	return time.Since(*user.ContactsLastSynced) > syncInterval
}

// MutualContacts lists the owner's mutual contacts sorted by saved name.
// Store failures degrade to an empty list.
func (s *ContactService) MutualContacts(owner string) []models.Contact {
	var contacts []models.Contact
	err := s.db.Where("owner_phone = ? AND is_mutual = true", owner).
		Order("saved_name ASC").
		Find(&contacts).Error
	if err != nil {
		slog.Error("mutual contacts read failed", "owner", owner, "error", err)
		return []models.Contact{}
	}
	return contacts
}

// registeredUsers resolves which of the given numbers belong to registered
// users, querying in batches of lookupBatchSize.
func (s *ContactService) registeredUsers(phones []string) (map[string]bool, error) {
	registered := make(map[string]bool)
	for _, chunk := range chunkStrings(phones, lookupBatchSize) {
		var users []models.User
		if err := s.db.Where("phone IN ?", chunk).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			registered[u.Phone] = true
		}
	}
	return registered, nil
}
