package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when no Redis URL is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.items[jti] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	return s.now().Before(expiresAt), nil
}

// sweep drops expired entries. Caller holds the write lock.
func (s *MemoryStore) sweep() {
	now := s.now()
	for jti, expiresAt := range s.items {
		if !now.Before(expiresAt) {
			delete(s.items, jti)
		}
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
