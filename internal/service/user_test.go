package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateByTelegram(t *testing.T) {
	users := NewUserService(newStore(t))
	ctx := context.Background()

	u, created, err := users.FindOrCreateByTelegram(ctx, 100, "Ann", false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, TelegramEmail(100), u.Email)
	assert.False(t, u.IsAdmin())

	again, created, err := users.FindOrCreateByTelegram(ctx, 100, "Ann", true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.True(t, again.IsAdmin())

	// never demoted
	again, _, err = users.FindOrCreateByTelegram(ctx, 100, "Ann", false)
	require.NoError(t, err)
	assert.True(t, again.IsAdmin())
}

func TestEnsureFromClaims(t *testing.T) {
	users := NewUserService(newStore(t))
	ctx := context.Background()
	id := uuid.New()

	u, err := users.EnsureFromClaims(ctx, Claims{UserID: id, Email: "Bob@Example.com", Name: "Bob", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.True(t, u.IsAdmin())

	off := false
	_, err = users.Update(ctx, id, UserUpdate{Active: &off})
	require.NoError(t, err)
	_, err = users.EnsureFromClaims(ctx, Claims{UserID: id})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserAdminOperations(t *testing.T) {
	users := NewUserService(newStore(t))
	ctx := context.Background()
	admin := newUser(t, users, 1)

	invited, err := users.Invite(ctx, "new@example.com", "Newcomer", "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUserAccount, invited.Role)

	_, err = users.Invite(ctx, "new@example.com", "Again", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := domain.UserRole("ROOT")
	_, err = users.Update(ctx, invited.ID, UserUpdate{Role: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, users.Delete(ctx, admin.ID, admin.ID), domain.ErrCannotDeleteSelf)
	require.NoError(t, users.Delete(ctx, admin.ID, invited.ID))
	_, err = users.Get(ctx, invited.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
