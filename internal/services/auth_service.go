package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fyihq/fyi-server/internal/config"
	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/otp"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid or expired refresh token")
	ErrInvalidPhone = errors.New("phone must be in E.164 format")
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// AuthService turns verified phone sessions into JWT pairs. The OTP
// collaborator sits behind otp.Provider; nothing here knows how codes travel.
type AuthService struct {
	db    *gorm.DB
	cfg   *config.Config
	otp   otp.Provider
	users *UserService
}

func NewAuthService(db *gorm.DB, cfg *config.Config, provider otp.Provider, users *UserService) *AuthService {
	return &AuthService{db: db, cfg: cfg, otp: provider, users: users}
}

// RequestCode starts phone verification.
func (s *AuthService) RequestCode(ctx context.Context, phone, ip string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return s.otp.RequestCode(ctx, phone, ip)
}

// VerifyCode finishes phone verification: on a correct code the user record
// is fetched or created (an already-stored name is never overwritten by the
// optional name argument) and a token pair is issued.
func (s *AuthService) VerifyCode(ctx context.Context, phone, code, name string) (*dto.AuthResponse, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}
	if err := s.otp.VerifyCode(ctx, phone, code); err != nil {
		return nil, err
	}

	user, err := s.users.GetOrCreateUser(phone, name)
	if err != nil {
		return nil, err
	}
	s.users.TouchLastSeen(phone)

	return s.generateTokenPair(user)
}

// Refresh rotates a refresh token: the presented token is revoked whether or
// not rotation succeeds.
func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(stored.UserPhone)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			Phone:        user.Phone,
			Name:         user.Name,
			NeedsProfile: user.Name == "",
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.Phone,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		UserPhone: user.Phone,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
