// Package session holds the authenticated user for the duration of an
// interaction, replacing the global current-user state the desktop
// variants kept in static fields.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yaaadiiiiiiii/Campus-Event-Management-System/internal/models"
)

// ErrNoSession is returned when a token is unknown or expired.
var ErrNoSession = errors.New("no active session")

// Provider supplies the currently authenticated user to callers that must
// not care where the identity comes from.
type Provider interface {
	Current(ctx context.Context) (*models.User, error)
}

// Session is one authenticated interaction.
type Session struct {
	Token     string
	User      models.User
	ExpiresAt time.Time
}

// Manager issues and resolves session tokens. Tokens are opaque uuids;
// expiry is checked on every lookup.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewManager creates a Manager whose sessions live for ttl.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// Create starts a session for the user and returns it.
func (m *Manager) Create(user models.User) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{
		Token:     uuid.NewString(),
		User:      user,
		ExpiresAt: m.now().Add(m.ttl),
	}
	m.sessions[s.Token] = s
	return s
}

// Resolve returns the user behind a token, dropping the session when it
// has expired.
func (m *Manager) Resolve(token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	if m.now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, ErrNoSession
	}
	u := s.User
	return &u, nil
}

// Delete ends a session. Unknown tokens are ignored.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Provider binds a token so the session can be passed around as a
// current-user source.
func (m *Manager) Provider(token string) Provider {
	return tokenProvider{m: m, token: token}
}

type tokenProvider struct {
	m     *Manager
	token string
}

func (p tokenProvider) Current(ctx context.Context) (*models.User, error) {
	return p.m.Resolve(p.token)
}
