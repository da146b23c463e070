package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// UserService owns the identity records keyed by phone number.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser is idempotent: an existing user is returned unchanged, so a
// repeated onboarding call can never blank out a stored name.
func (s *UserService) CreateUser(phone, name string) (*models.User, error) {
	var existing models.User
	if err := s.db.First(&existing, "phone = ?", phone).Error; err == nil {
		return &existing, nil
	}

	now := time.Now()
	user := models.User{
		Phone:         phone,
		Notifications: true,
		ReadReceipts:  true,
		LastSeen:      now,
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		user.Name = trimmed
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetUser(phone string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetOrCreateUser(phone, name string) (*models.User, error) {
	user, err := s.GetUser(phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	return s.CreateUser(phone, name)
}

// UpdateUser applies only the fields present in the request. A blank or
// whitespace-only name is dropped rather than stored. Every update bumps
// updated_at.
func (s *UserService) UpdateUser(phone string, req *dto.UpdateUserRequest) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}

	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			updates["name"] = trimmed
		}
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Notifications != nil {
		updates["notifications"] = *req.Notifications
	}
	if req.ReadReceipts != nil {
		updates["read_receipts"] = *req.ReadReceipts
	}

	result := s.db.Model(&models.User{}).Where("phone = ?", phone).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CompleteProfile stores the display name collected after OTP verification.
func (s *UserService) CompleteProfile(phone, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("name is required")
	}
	return s.UpdateUser(phone, &dto.UpdateUserRequest{Name: &trimmed})
}

// TouchLastSeen records user activity. Failures are not interesting to callers.
func (s *UserService) TouchLastSeen(phone string) {
	s.db.Model(&models.User{}).Where("phone = ?", phone).Update("last_seen", time.Now())
}
