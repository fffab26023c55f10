// Package cache provides the page cache used by evidence retrieval:
// an in-memory layer over an optional on-disk layer, so repeated
// checks of similar answers do not refetch the same sources.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-value cache with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "claimstream:v1:" + hex.EncodeToString(hash[:])
}
