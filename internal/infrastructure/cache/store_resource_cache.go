package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/erp/orderdesk/internal/infrastructure/persistence"
)

// StoreResourceCache keeps cached resources in the SQLite client store,
// so a restarted desk can reuse a still-fresh catalog.
type StoreResourceCache struct {
	store     *persistence.ClientStore
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewStoreResourceCache creates a cache on top of the client store
func NewStoreResourceCache(store *persistence.ClientStore, keyPrefix string, ttl time.Duration) *StoreResourceCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &StoreResourceCache{store: store, keyPrefix: keyPrefix, ttl: ttl, now: time.Now}
}

// Get implements ResourceCache
func (c *StoreResourceCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, at, found, err := c.store.Get(ctx, c.keyPrefix+key)
	if err != nil || !found {
		return Entry{}, false, err
	}
	e := Entry{Data: raw, Timestamp: at}
	if !e.Fresh(c.now(), c.ttl) {
		return Entry{}, false, c.store.Delete(ctx, c.keyPrefix+key)
	}
	return e, true, nil
}

// Set implements ResourceCache
func (c *StoreResourceCache) Set(ctx context.Context, key string, data json.RawMessage) error {
	return c.store.PutAt(ctx, c.keyPrefix+key, data, c.now())
}

// Delete implements ResourceCache
func (c *StoreResourceCache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.keyPrefix + k
	}
	return c.store.Delete(ctx, full...)
}

// Purge drops every cached resource, leaving other client state alone
func (c *StoreResourceCache) Purge(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, c.keyPrefix)
}

var _ ResourceCache = (*StoreResourceCache)(nil)
