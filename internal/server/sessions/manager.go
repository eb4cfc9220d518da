// Package sessions holds the server-side session state: an opaque,
// unforgeable token per client mapped to a user id. Resolving a token always
// re-fetches the user from the store, so a session never serves a stale
// snapshot and never outlives the user record.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avoronov/secretwall/internal/common"
	"github.com/avoronov/secretwall/internal/server/models"
	"github.com/avoronov/secretwall/internal/server/repositories/users"
)

const tokenBytes = 32

type session struct {
	userID    string
	createdAt time.Time
}

// Manager is the process-wide session store. It is created once at startup
// and injected wherever sessions are read or written; there is no ambient
// global.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]session

	repo users.Repository

	// ttl bounds session age, enforced lazily at Resolve. Zero disables
	// expiry.
	ttl time.Duration

	now func() time.Time
}

func NewManager(repo users.Repository, ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]session),
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Establish serializes the authenticated identity into a new session and
// returns its token. The token is random; it encodes nothing but the mapping
// key, and no credential material crosses this boundary.
func (m *Manager) Establish(ctx context.Context, user *models.User) (string, error) {
	token, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}

	m.mu.Lock()
	m.sessions[token] = session{userID: user.ID, createdAt: m.now()}
	m.mu.Unlock()

	return token, nil
}

// Resolve deserializes a token back into a live user. A missing token, an
// expired session, or a user that no longer exists all yield
// common.ErrSessionNotFound — the caller treats the request as anonymous.
// Store failures propagate as errors and must not be read as "anonymous".
func (m *Manager) Resolve(ctx context.Context, token string) (*models.User, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return nil, common.ErrSessionNotFound
	}
	if m.ttl > 0 && m.now().Sub(s.createdAt) > m.ttl {
		m.Destroy(token)
		return nil, common.ErrSessionNotFound
	}

	user, err := m.repo.FindByID(ctx, s.userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// The user was deleted out from under the session.
			m.Destroy(token)
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session user lookup: %w", err)
	}

	return user, nil
}

// Destroy removes the session binding. Idempotent; the user record is
// untouched.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Active returns the number of live session bindings.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
