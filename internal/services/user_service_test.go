package services

import (
	"testing"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_Idempotent(t *testing.T) {
	service := NewUserService(setupTestDB(t))

	first, err := service.CreateUser("+15550000001", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", first.Name)
	assert.True(t, first.Notifications)
	assert.True(t, first.ReadReceipts)

	// A repeat call with a blank name must not clobber the stored profile.
	second, err := service.CreateUser("+15550000001", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.Name)
}

func TestGetOrCreateUser(t *testing.T) {
	service := NewUserService(setupTestDB(t))

	user, err := service.GetOrCreateUser("+15550000001", "")
	require.NoError(t, err)
	assert.Empty(t, user.Name)

	again, err := service.GetOrCreateUser("+15550000001", "ignored")
	require.NoError(t, err)
	assert.Equal(t, user.Phone, again.Phone)
	assert.Empty(t, again.Name)
}

func TestUpdateUser_PartialAndBlankNameDropped(t *testing.T) {
	service := NewUserService(setupTestDB(t))
	_, err := service.CreateUser("+15550000001", "Ada")
	require.NoError(t, err)

	blank := "   "
	notifications := false
	require.NoError(t, service.UpdateUser("+15550000001", &dto.UpdateUserRequest{
		Name:          &blank,
		Notifications: &notifications,
	}))

	user, err := service.GetUser("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.False(t, user.Notifications)
	assert.True(t, user.ReadReceipts)
}

func TestUpdateUser_UnknownUser(t *testing.T) {
	service := NewUserService(setupTestDB(t))

	name := "Nobody"
	err := service.UpdateUser("+15559999999", &dto.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCompleteProfile(t *testing.T) {
	service := NewUserService(setupTestDB(t))
	_, err := service.CreateUser("+15550000001", "")
	require.NoError(t, err)

	assert.Error(t, service.CompleteProfile("+15550000001", "  "))

	require.NoError(t, service.CompleteProfile("+15550000001", "  Ada Lovelace  "))
	user, err := service.GetUser("+15550000001")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
}
