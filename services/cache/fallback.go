package cache

import (
	"errors"
	"time"

	"sjsage522/fundgrubenotifier/logger"
)

// FallbackCache stores values in primary and moves those primary rejects
// as too large to secondary
type FallbackCache struct {
	primary   CacheService
	secondary CacheService
}

// NewFallbackCache creates a cache preferring primary over secondary
func NewFallbackCache(primary, secondary CacheService) *FallbackCache {
	return &FallbackCache{primary: primary, secondary: secondary}
}

// Get reads from primary first, then from secondary
func (f *FallbackCache) Get(key string) ([]byte, error) {
	value, err := f.primary.Get(key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.ForCache().Warn().Err(err).Str("key", key).Msg("Primary cache read failed")
	}
	return f.secondary.Get(key)
}

// Set writes to primary, or to secondary when the value is too large
func (f *FallbackCache) Set(key string, value []byte, expiration time.Duration) error {
	err := f.primary.Set(key, value, expiration)
	if !errors.Is(err, ErrValueTooLarge) {
		return err
	}
	logger.ForCache().Debug().
		Str("key", key).
		Int("size", len(value)).
		Msg("Value too large for primary cache, using fallback")
	return f.secondary.Set(key, value, expiration)
}

// Delete removes the key from both caches
func (f *FallbackCache) Delete(key string) error {
	return errors.Join(f.primary.Delete(key), f.secondary.Delete(key))
}
