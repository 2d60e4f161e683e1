package refregistry

import (
	"context"
	"sync"
	"time"
)

// InMemoryRegistry is the single-instance default. Expired entries are
// reaped lazily on access.
type InMemoryRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewInMemoryRegistry(ttl time.Duration) *InMemoryRegistry {
	return &InMemoryRegistry{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *InMemoryRegistry) Register(_ context.Context, refID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expires, ok := r.entries[refID]; ok && now.Before(expires) {
		return false, nil
	}
	r.entries[refID] = now.Add(r.ttl)
	r.reapLocked(now)
	return true, nil
}

func (r *InMemoryRegistry) Exists(_ context.Context, refID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires, ok := r.entries[refID]
	if !ok {
		return false, nil
	}
	if r.now().After(expires) {
		delete(r.entries, refID)
		return false, nil
	}
	return true, nil
}

func (r *InMemoryRegistry) reapLocked(now time.Time) {
	for id, expires := range r.entries {
		if now.After(expires) {
			delete(r.entries, id)
		}
	}
}
