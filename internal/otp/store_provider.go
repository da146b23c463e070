package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fyihq/fyi-server/internal/config"
	"github.com/fyihq/fyi-server/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	codeExpiry      = 5 * time.Minute
	maxAttempts     = 5
	minAttemptDelay = 2 * time.Second

	requestWindow        = 10 * time.Minute
	maxRequestsPerWindow = 3

	devModeCode = "123456"
)

var (
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyRequests = errors.New("too many verification requests for this phone")
	ErrTooManyAttempts = errors.New("too many attempts, try again later")
)

// StoreProvider implements Provider with database-backed sessions. Codes are
// stored bcrypt-hashed; the delivery credentials from config are only used at
// the send step.
type StoreProvider struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewStoreProvider(db *gorm.DB, cfg *config.Config) *StoreProvider {
	return &StoreProvider{db: db, cfg: cfg}
}

// RequestCode creates or replaces the phone's verification session. Rate
// limit: max 3 requests per 10 minutes per phone.
func (p *StoreProvider) RequestCode(ctx context.Context, phone, ip string) error {
	since := time.Now().Add(-requestWindow)
	var recent int64
	if err := p.db.WithContext(ctx).Model(&models.OTPSession{}).
		Where("phone = ? AND created_at > ?", phone, since).
		Count(&recent).Error; err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if recent >= maxRequestsPerWindow {
		return ErrTooManyRequests
	}

	code := devModeCode
	if !p.cfg.OTPDevMode {
		code = generateCode()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	var requestIP *string
	if ip != "" {
		requestIP = &ip
	}
	session := models.OTPSession{
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(codeExpiry),
		RequestIP: requestIP,
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A new request invalidates any earlier pending session for the phone.
		if err := tx.Model(&models.OTPSession{}).
			Where("phone = ? AND consumed = false", phone).
			Update("consumed", true).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if p.cfg.OTPDevMode {
		slog.Info("otp dev mode, skipping delivery", "phone", phone)
		return nil
	}

	return p.deliver(ctx, phone, code)
}

// VerifyCode checks the code against the active session: attempt cap 5,
// minimum 2s between attempts, bcrypt comparison, consume on success.
func (p *StoreProvider) VerifyCode(ctx context.Context, phone, code string) error {
	var session models.OTPSession
	err := p.db.WithContext(ctx).
		Where("phone = ? AND consumed = false AND expires_at > ?", phone, time.Now()).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return ErrInvalidCode
	}

	now := time.Now()
	if session.LastAttemptAt != nil && now.Sub(*session.LastAttemptAt) < minAttemptDelay {
		return ErrTooManyAttempts
	}

	session.Attempts++
	session.LastAttemptAt = &now
	if err := p.db.WithContext(ctx).Model(&session).
		Updates(map[string]interface{}{
			"attempts":        session.Attempts,
			"last_attempt_at": now,
		}).Error; err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if session.Attempts >= maxAttempts {
		p.db.WithContext(ctx).Model(&session).Update("consumed", true)
		return ErrInvalidCode
	}

	if bcrypt.CompareHashAndPassword([]byte(session.CodeHash), []byte(code)) != nil {
		return ErrInvalidCode
	}

	if err := p.db.WithContext(ctx).Model(&session).Update("consumed", true).Error; err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	return nil
}

// deliver hands the code to the SMS gateway. Kept as a log line until the
// gateway account is provisioned; the credentials are already plumbed through
// config so the call site does not change.
func (p *StoreProvider) deliver(ctx context.Context, phone, code string) error {
	if p.cfg.OTPProviderAPIKey == "" {
		return errors.New("otp provider api key not configured")
	}
	slog.Info("otp code dispatched", "phone", phone, "sender_id", p.cfg.OTPProviderSenderID)
	// Plaintext code must never be logged.
	_ = code
	return nil
}

func generateCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%06d", rng.Intn(900000)+100000)
}
