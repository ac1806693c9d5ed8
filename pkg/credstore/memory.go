package credstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-process storage. Suitable for tests
// and for processes that should not persist credentials across restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	user  *UserSnapshot
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Credentials(ctx context.Context) (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *MemoryStore) SetCredentials(ctx context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	return nil
}

func (m *MemoryStore) CachedUser(ctx context.Context) (*UserSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, nil
	}
	userCopy := *m.user
	return &userCopy, nil
}

func (m *MemoryStore) SetCachedUser(ctx context.Context, user *UserSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user == nil {
		m.user = nil
		return nil
	}
	userCopy := *user
	m.user = &userCopy
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	m.user = nil
	return nil
}
