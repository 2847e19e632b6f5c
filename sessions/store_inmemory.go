package sessions

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a mutex-guarded map store for development and tests.
// Like the Postgres store it keeps expired entries until destroyed.
type InMemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]Data
	defaultTTL time.Duration
	nowTime    func() time.Time
}

func NewInMemoryStore(defaultTTL time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries:    make(map[string]Data),
		defaultTTL: defaultTTL,
		nowTime:    time.Now,
	}
}

// SetNowTime overrides the store's clock (for tests).
func (s *InMemoryStore) SetNowTime(nowFunc func() time.Time) {
	s.nowTime = nowFunc
}

func (s *InMemoryStore) Create(_ context.Context, data Data) (string, error) {
	if data.ExpiresAt.IsZero() {
		data.ExpiresAt = s.nowTime().Add(s.defaultTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newSessionID()
	s.entries[id] = data
	return id, nil
}

func (s *InMemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	copied := data
	return &copied, nil
}

func (s *InMemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
