// Package profilecache memoizes fetched external profiles so repeated
// requests within the TTL window bypass the rate-limited fetch agent.
package profilecache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the profile cache contract. Entries are overwritten wholesale on
// refresh, never updated in place; staleness is tolerated up to the TTL.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) error
}

// Key builds a composite cache key from a source-system tag and an external
// identifier.
func Key(source, externalID string) string {
	return source + ":" + externalID
}
