// Package cache provides the time-boxed read caches used by the sync layer.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL is how long a cached resource stays fresh
const DefaultTTL = 5 * time.Minute

// Entry is a cached resource blob and the moment it was written
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Fresh reports whether the entry is younger than ttl at now.
// A non-positive ttl never yields a fresh entry.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.Timestamp) < ttl
}

// ResourceCache stores per-resource blobs.
// Get reports found=false for absent and expired entries alike.
type ResourceCache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, data json.RawMessage) error
	Delete(ctx context.Context, keys ...string) error
}
