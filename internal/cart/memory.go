package cart

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory cart store for tests and local development
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]map[string]struct{}
}

// NewMemoryStore creates an in-memory cart store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]map[string]struct{}),
	}
}

func key(userID, tenantSlug string) string {
	return userID + ":" + tenantSlug
}

func (s *MemoryStore) Add(_ context.Context, userID, tenantSlug string, productIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, tenantSlug)
	if s.carts[k] == nil {
		s.carts[k] = make(map[string]struct{})
	}
	for _, id := range productIDs {
		s.carts[k][id] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, tenantSlug, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts[key(userID, tenantSlug)], productID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID, tenantSlug string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.carts[key(userID, tenantSlug)]))
	for id := range s.carts[key(userID, tenantSlug)] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID, tenantSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, key(userID, tenantSlug))
	return nil
}
