package cache

import (
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// New returns the cache named by backend, "memcache" or "memory"
func New(backend, memcacheAddr string) CacheService {
	if backend == "memory" {
		return NewMemoryCache(time.Hour, 10*time.Minute)
	}
	return NewMemcacheService(memcacheAddr)
}
