package registry

import (
	"context"
	"sync"

	"custodia/pkg/domain"
)

// Store persists allow-list entries. Implementations must treat SetActive
// as idempotent: setting an entry to its current state succeeds silently.
type Store interface {
	SetActive(ctx context.Context, identity domain.Identity, active bool) error
	IsActive(ctx context.Context, identity domain.Identity) (bool, error)
}

// InMemoryStore keeps allow-list entries in a mutex-guarded map. Suitable
// for single-process deployments and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.Identity]bool
}

// NewInMemoryStore creates an empty in-memory allow-list store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.Identity]bool)}
}

// SetActive updates only the entry's active flag.
func (s *InMemoryStore) SetActive(_ context.Context, identity domain.Identity, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.entries[identity] = true
		return nil
	}
	delete(s.entries, identity)
	return nil
}

// IsActive reports the entry's active flag; absent entries are inactive.
func (s *InMemoryStore) IsActive(_ context.Context, identity domain.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[identity], nil
}
