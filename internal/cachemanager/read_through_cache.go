package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache fronts a loader function with a cache: hits come from
// the cache, misses run the loader and populate it. Errors from the loader
// are never cached.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              func(ctx context.Context, input I) (V, error)
	shouldSkipCache bool
}

func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache,
	}
}

// lookup is the shared read path; refresh controls whether a hit re-arms
// its TTL.
func (r *ReadThroughCache[K, V, I]) lookup(ctx context.Context, key K, input I, ttl time.Duration, refresh bool) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	var value V
	var hit bool
	if refresh {
		value, hit = r.cache.GetWithRefresh(ctx, key, ttl)
	} else {
		value, hit = r.cache.Get(ctx, key)
	}
	if hit {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Get returns the cached value for key, loading and caching it on a miss.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.lookup(ctx, key, input, ttl, false)
}

// GetWithRefresh is Get with a sliding TTL: a hit re-arms the entry's
// lifetime.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.lookup(ctx, key, input, ttl, true)
}

// Invalidate drops the given keys so the next read goes to the loader.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, keys ...K) error {
	if r.shouldSkipCache {
		return nil
	}
	return r.cache.Delete(ctx, keys...)
}
