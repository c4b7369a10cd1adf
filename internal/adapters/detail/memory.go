package detail

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pomorank/pomorank/internal/domain/model"
)

type memoryEntry struct {
	snap      model.Snapshot
	expiresAt time.Time
}

// MemoryCache implements Cache with a mutex-guarded map and clock-driven
// expiry. Used by the test suite and the "memory" backend.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   clockwork.Clock
}

// NewMemoryCache constructs an empty in-memory cache. A nil clock falls
// back to the real one.
func NewMemoryCache(clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

// Get returns the cached snapshot or ErrMiss. Expired entries are dropped
// lazily on read.
func (c *MemoryCache) Get(ctx context.Context, userID string) (model.Snapshot, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return model.Snapshot{}, ErrMiss
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another Put may have refreshed it.
		if cur, ok := c.entries[userID]; ok && !c.clock.Now().Before(cur.expiresAt) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return model.Snapshot{}, ErrMiss
	}
	return e.snap, nil
}

// Put stores a snapshot for ttl.
func (c *MemoryCache) Put(ctx context.Context, userID string, snap model.Snapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryEntry{snap: snap, expiresAt: c.clock.Now().Add(ttl)}
	return nil
}

// Invalidate drops the cached snapshot, if any.
func (c *MemoryCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}
