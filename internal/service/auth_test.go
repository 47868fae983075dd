package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	s := NewAuthService(f.users, zap.NewNop())

	user, err := s.Login(ctx, "S1", "pw")
	require.NoError(t, err)
	assert.Equal(t, "王小明", user.Name)
	assert.Equal(t, models.RoleStudent, user.Role)

	user, err = s.Login(ctx, "T01", "pw")
	require.NoError(t, err)
	assert.True(t, user.IsOrganizer())
}

func TestLoginRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	s := NewAuthService(f.users, zap.NewNop())

	_, err := s.Login(ctx, "", "pw")
	assert.ErrorContains(t, err, "required")
}

func TestLoginBadCredentialsGetOneMessage(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)
	s := NewAuthService(f.users, zap.NewNop())

	// An unknown id and a wrong password must be indistinguishable.
	_, unknownErr := s.Login(ctx, "S999", "pw")
	_, wrongPwErr := s.Login(ctx, "S1", "wrong")
	require.Error(t, unknownErr)
	require.Error(t, wrongPwErr)
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
}
