package profilecache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      json.RawMessage
	expiresAt time.Time
}

// InMemoryCache provides an in-memory implementation of Cache for tests and
// local runs. Expired entries are dropped lazily on read.
type InMemoryCache struct {
	entries map[string]memoryEntry
	mutex   sync.RWMutex
}

// NewInMemoryCache creates a new in-memory profile cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
	}
}

// Get retrieves cached data, returning ErrMiss when absent or expired.
func (c *InMemoryCache) Get(ctx context.Context, key string) (json.RawMessage, error) {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, ErrMiss
	}
	if entry.expiresAt.Before(time.Now()) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, ErrMiss
	}

	// Return a copy to avoid shared references
	out := make(json.RawMessage, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

// Put stores data under the key, overwriting any previous entry.
func (c *InMemoryCache) Put(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) error {
	stored := make(json.RawMessage, len(data))
	copy(stored, data)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = memoryEntry{
		data:      stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
