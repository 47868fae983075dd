package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

var testUser = models.User{ID: "S1", Name: "王小明", Role: models.RoleStudent}

func TestCreateAndResolve(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(testUser)
	require.NotEmpty(t, s.Token)

	u, err := m.Resolve(s.Token)
	require.NoError(t, err)
	assert.Equal(t, testUser, *u)

	other := m.Create(testUser)
	assert.NotEqual(t, s.Token, other.Token, "every session gets its own token")
}

func TestResolveUnknownToken(t *testing.T) {
	m := NewManager(time.Hour)
	_, err := m.Resolve("not-a-token")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResolveExpiredSessionIsDropped(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(testUser)

	m.now = func() time.Time { return s.ExpiresAt.Add(time.Second) }
	_, err := m.Resolve(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	// The expired session is gone even if the clock goes back.
	m.now = time.Now
	_, err = m.Resolve(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDelete(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(testUser)
	m.Delete(s.Token)
	_, err := m.Resolve(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	m.Delete("unknown-token")
}

func TestProviderCurrent(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create(testUser)

	u, err := m.Provider(s.Token).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S1", u.ID)

	_, err = m.Provider("stale").Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
