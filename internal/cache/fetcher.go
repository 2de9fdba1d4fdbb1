package cache

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/curamed/chartcache/internal/observability"
)

// Loader performs the actual remote read for a key. It must not touch the
// cache itself; the Fetcher owns the write.
type Loader[V any] func(ctx context.Context) (V, error)

// Fetcher wraps a TTLCache with request coalescing and per-key invalidation
// versioning. Concurrent fetches for one key share a single loader call, and
// a loader result is written to the cache only if the key was not
// invalidated while the load was in flight. Stale results are still returned
// to their callers; they are just never cached.
type Fetcher[V any] struct {
	cache    *TTLCache[V]
	resource string
	metrics  observability.Metrics

	group singleflight.Group

	mu       sync.Mutex
	versions map[string]uint64
	inflight map[string]int
}

// NewFetcher builds a Fetcher over the given cache.
func NewFetcher[V any](c *TTLCache[V], metrics observability.Metrics) *Fetcher[V] {
	if metrics == nil {
		metrics = observability.Noop{}
	}
	return &Fetcher[V]{
		cache:    c,
		resource: c.resource,
		metrics:  metrics,
		versions: make(map[string]uint64),
		inflight: make(map[string]int),
	}
}

// Cache exposes the underlying TTLCache for direct priming and deletion.
func (f *Fetcher[V]) Cache() *TTLCache[V] { return f.cache }

// Fetch returns the cached value for key, or coalesces with any in-flight
// load, or starts the loader.
func (f *Fetcher[V]) Fetch(ctx context.Context, key string, loader Loader[V]) (V, error) {
	return f.fetch(ctx, key, loader, false)
}

// Refresh bypasses the freshness check but still joins an in-flight load
// for the same key.
func (f *Fetcher[V]) Refresh(ctx context.Context, key string, loader Loader[V]) (V, error) {
	return f.fetch(ctx, key, loader, true)
}

func (f *Fetcher[V]) fetch(ctx context.Context, key string, loader Loader[V], force bool) (V, error) {
	// A forced refresh is neither a hit nor a miss: the caller did not ask
	// the cache a question, so it must not skew the hit rate.
	if !force {
		if v, ok := f.cache.Get(key); ok {
			f.metrics.CacheHit(f.resource)
			return v, nil
		}
		f.metrics.CacheMiss(f.resource)
	}

	f.track(key, 1)
	defer f.track(key, -1)

	res, err, _ := f.group.Do(key, func() (any, error) {
		versionAtStart := f.version(key)

		val, err := loader(ctx)
		if err != nil {
			// Failures are propagated to every waiter, never cached.
			return nil, err
		}

		// The version check and the write stay under one lock so an
		// Invalidate cannot land between them and leave the stale value
		// cached. The caller still gets the value either way.
		f.mu.Lock()
		if f.versions[key] == versionAtStart {
			f.cache.Set(key, val)
		}
		f.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate bumps the key's version, drops the cache entry and forgets any
// in-flight registration. An outstanding load is not aborted; its result is
// discarded by the version check.
func (f *Fetcher[V]) Invalidate(key string) {
	f.mu.Lock()
	f.versions[key]++
	f.mu.Unlock()

	f.cache.Delete(key)
	f.group.Forget(key)
}

// InvalidatePrefix invalidates every key under the given prefix: all cached
// entries are dropped and every in-flight load under the prefix is
// version-bumped and forgotten.
func (f *Fetcher[V]) InvalidatePrefix(prefix string) {
	f.mu.Lock()
	bumped := make([]string, 0)
	for key := range f.inflight {
		if strings.HasPrefix(key, prefix) {
			f.versions[key]++
			bumped = append(bumped, key)
		}
	}
	f.mu.Unlock()

	f.cache.DeletePrefix(prefix)
	for _, key := range bumped {
		f.group.Forget(key)
	}
}

// Version returns the current invalidation counter for key (0 if never
// invalidated).
func (f *Fetcher[V]) Version(key string) uint64 {
	return f.version(key)
}

func (f *Fetcher[V]) version(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[key]
}

// track maintains the in-flight key registry so prefix invalidation can see
// loads that were never invalidated before.
func (f *Fetcher[V]) track(key string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight[key] += delta
	if f.inflight[key] <= 0 {
		delete(f.inflight, key)
	}
}
