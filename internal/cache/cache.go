// Package cache provides the small caching layer shared by the article
// fetcher (fetched page text) and the enrichment lookup (sources and
// topics). Entries are opaque byte slices; structured values go
// through the JSON helpers below.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is implemented by the memory, disk and layered caches.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from an arbitrary identifier such as
// a URL or a topic id.
func Key(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "chequeo-" + hex.EncodeToString(hash[:])
}

// GetJSON loads the entry for id and decodes it into out. A decode
// failure reads as a miss; the stale entry is dropped so the caller
// refreshes it.
func GetJSON(c Cache, id string, out any) bool {
	if c == nil {
		return false
	}
	raw, found := c.Get(Key(id))
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		_ = c.Delete(Key(id))
		return false
	}
	return true
}

// SetJSON encodes v and stores it under id.
func SetJSON(c Cache, id string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(Key(id), raw, ttl)
}
