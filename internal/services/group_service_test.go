package services

import (
	"testing"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	id, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{
		Name:    "  close friends  ",
		Emoji:   "🌵",
		Members: []string{"+15550000002", "+15550000003"},
	})
	require.NoError(t, err)

	group, err := service.GetGroup("+15550000001", id)
	require.NoError(t, err)
	assert.Equal(t, "close friends", group.Name)
	assert.Equal(t, "🌵", group.Emoji)
	assert.Equal(t, 2, group.MemberCount)
	assert.Equal(t, []string{"+15550000002", "+15550000003"}, group.MemberList())
}

func TestCreateGroup_NameRequired(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	_, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{Name: "   "})
	assert.Error(t, err)
}

func TestGetGroup_ScopedToOwner(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	id, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{Name: "mine"})
	require.NoError(t, err)

	_, err = service.GetGroup("+15550000009", id)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateGroup_MembershipRecomputesCount(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	id, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{
		Name:    "team",
		Members: []string{"+15550000002"},
	})
	require.NoError(t, err)

	members := []string{"+15550000002", "+15550000003", "+15550000004"}
	require.NoError(t, service.UpdateGroup("+15550000001", id, &dto.UpdateGroupRequest{
		Members: &members,
	}))

	group, err := service.GetGroup("+15550000001", id)
	require.NoError(t, err)
	assert.Equal(t, 3, group.MemberCount)
	assert.Equal(t, members, group.MemberList())
	// Untouched fields survive partial updates.
	assert.Equal(t, "team", group.Name)
}

func TestUpdateGroup_BlankNameRejected(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	id, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{Name: "team"})
	require.NoError(t, err)

	blank := " "
	assert.Error(t, service.UpdateGroup("+15550000001", id, &dto.UpdateGroupRequest{Name: &blank}))
}

func TestDeleteGroup(t *testing.T) {
	service := NewGroupService(setupTestDB(t))

	id, err := service.CreateGroup("+15550000001", &dto.CreateGroupRequest{Name: "ephemeral"})
	require.NoError(t, err)

	// Only the owner can delete.
	assert.ErrorIs(t, service.DeleteGroup("+15550000009", id), ErrGroupNotFound)

	require.NoError(t, service.DeleteGroup("+15550000001", id))
	_, err = service.GetGroup("+15550000001", id)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestDeleteGroup_Unknown(t *testing.T) {
	service := NewGroupService(setupTestDB(t))
	assert.ErrorIs(t, service.DeleteGroup("+15550000001", uuid.New()), ErrGroupNotFound)
}
