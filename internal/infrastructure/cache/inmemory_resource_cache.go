package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// InMemoryResourceCache keeps entries in a map guarded by a mutex.
// Entries are not shared across processes.
type InMemoryResourceCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryResourceCache creates an in-memory cache with the given ttl
func NewInMemoryResourceCache(ttl time.Duration) *InMemoryResourceCache {
	return &InMemoryResourceCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewInMemoryResourceCacheWithClock creates an in-memory cache reading time from now
func NewInMemoryResourceCacheWithClock(ttl time.Duration, now func() time.Time) *InMemoryResourceCache {
	c := NewInMemoryResourceCache(ttl)
	c.now = now
	return c
}

// Get returns the entry for key; an expired entry is dropped and reported as a miss
func (c *InMemoryResourceCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if !e.Fresh(c.now(), c.ttl) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed it
		if cur, still := c.entries[key]; still && cur.Timestamp.Equal(e.Timestamp) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set stores data under key stamped with the current time
func (c *InMemoryResourceCache) Set(_ context.Context, key string, data json.RawMessage) error {
	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	c.mu.Lock()
	c.entries[key] = Entry{Data: cp, Timestamp: c.now()}
	c.mu.Unlock()
	return nil
}

// Delete removes keys
func (c *InMemoryResourceCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryResourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ ResourceCache = (*InMemoryResourceCache)(nil)
