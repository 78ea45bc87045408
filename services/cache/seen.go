package cache

import (
	"errors"
	"time"
)

const seenPrefix = "seen:"

// SeenSet remembers published record keys for a TTL so later cycles skip
// them
type SeenSet struct {
	cache CacheService
	ttl   time.Duration
}

// NewSeenSet creates a seen set on top of cache
func NewSeenSet(cache CacheService, ttl time.Duration) *SeenSet {
	return &SeenSet{cache: cache, ttl: ttl}
}

// Seen reports whether key was marked. Cache errors other than a miss
// report false so that an unreachable cache never drops records.
func (s *SeenSet) Seen(key string) (bool, error) {
	_, err := s.cache.Get(seenPrefix + key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrMiss):
		return false, nil
	default:
		return false, err
	}
}

// Mark records key as published
func (s *SeenSet) Mark(key string) error {
	return s.cache.Set(seenPrefix+key, []byte{1}, s.ttl)
}
