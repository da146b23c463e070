package services

import (
	"context"
	"testing"
	"time"

	"github.com/fyihq/fyi-server/internal/config"
	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeProvider accepts exactly one code and records requests.
type fakeProvider struct {
	code     string
	requests []string
}

func (f *fakeProvider) RequestCode(ctx context.Context, phone, ip string) error {
	f.requests = append(f.requests, phone)
	return nil
}

func (f *fakeProvider) VerifyCode(ctx context.Context, phone, code string) error {
	if code != f.code {
		return assert.AnError
	}
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeProvider, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
	}
	provider := &fakeProvider{code: "123456"}
	return NewAuthService(db, cfg, provider, NewUserService(db)), provider, db
}

func TestRequestCode_ValidatesPhone(t *testing.T) {
	service, provider, _ := newTestAuthService(t)
	ctx := context.Background()

	assert.ErrorIs(t, service.RequestCode(ctx, "555-1234", "1.2.3.4"), ErrInvalidPhone)
	assert.ErrorIs(t, service.RequestCode(ctx, "+0123456789", "1.2.3.4"), ErrInvalidPhone)
	assert.Empty(t, provider.requests)

	require.NoError(t, service.RequestCode(ctx, "+15550000001", "1.2.3.4"))
	assert.Equal(t, []string{"+15550000001"}, provider.requests)
}

func TestVerifyCode_IssuesTokensAndCreatesUser(t *testing.T) {
	service, _, db := newTestAuthService(t)

	resp, err := service.VerifyCode(context.Background(), "+15550000001", "123456", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "+15550000001", resp.User.Phone)
	assert.Equal(t, "Ada", resp.User.Name)
	assert.False(t, resp.User.NeedsProfile)

	// The access token carries the phone as subject.
	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "+15550000001", sub)

	var user models.User
	require.NoError(t, db.First(&user, "phone = ?", "+15550000001").Error)
	assert.Equal(t, "Ada", user.Name)
}

func TestVerifyCode_NewUserWithoutNameNeedsProfile(t *testing.T) {
	service, _, _ := newTestAuthService(t)

	resp, err := service.VerifyCode(context.Background(), "+15550000001", "123456", "")
	require.NoError(t, err)
	assert.True(t, resp.User.NeedsProfile)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	service, _, db := newTestAuthService(t)

	_, err := service.VerifyCode(context.Background(), "+15550000001", "000000", "Ada")
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRefresh_RotatesToken(t *testing.T) {
	service, _, _ := newTestAuthService(t)

	first, err := service.VerifyCode(context.Background(), "+15550000001", "123456", "Ada")
	require.NoError(t, err)

	second, err := service.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The presented token is revoked: replaying it fails.
	_, err = service.Refresh(&dto.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_UnknownToken(t *testing.T) {
	service, _, _ := newTestAuthService(t)

	_, err := service.Refresh(&dto.RefreshRequest{RefreshToken: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	service, _, _ := newTestAuthService(t)

	resp, err := service.VerifyCode(context.Background(), "+15550000001", "123456", "Ada")
	require.NoError(t, err)

	require.NoError(t, service.Logout(&dto.LogoutRequest{RefreshToken: resp.RefreshToken}))

	_, err = service.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
