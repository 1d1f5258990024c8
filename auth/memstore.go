package auth

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store guarded by a single RWMutex. It backs the
// tests and is handy for running the server without PostgreSQL. The username
// uniqueness check and the insert happen under one write lock, so concurrent
// registrations cannot race.
type MemStore struct {
	mu sync.RWMutex

	nextUserID int
	users      map[int]*User
	byUsername map[string]int
	sessions   map[string]*Session
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nextUserID: 1,
		users:      make(map[int]*User),
		byUsername: make(map[string]int),
		sessions:   make(map[string]*Session),
	}
}

func cloneUser(u *User) *User {
	out := *u
	return &out
}

func cloneSession(s *Session) *Session {
	out := *s
	return &out
}

func (m *MemStore) CreateUser(_ context.Context, username, hashedPassword string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUsername[username]; exists {
		return nil, ErrUsernameTaken
	}

	user := &User{
		ID:             m.nextUserID,
		Username:       username,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now(),
	}
	m.nextUserID++
	m.users[user.ID] = user
	m.byUsername[username] = user.ID

	return cloneUser(user), nil
}

func (m *MemStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(m.users[id]), nil
}

func (m *MemStore) CreateSession(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.CreatedAt = time.Now()
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (m *MemStore) RevokeSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.Revoked = true
	return nil
}

func (m *MemStore) PurgeSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	now := time.Now()
	for id, session := range m.sessions {
		if session.Revoked || session.ExpiresAt.Before(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}
