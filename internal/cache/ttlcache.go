package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/curamed/chartcache/internal/logger"
	"github.com/curamed/chartcache/internal/observability"
)

// Options configures a TTLCache instance.
type Options struct {
	// Resource names the cache in logs and metrics (e.g. "patient").
	Resource string
	// MaxEntries is the hard size bound. After every Set the oldest-inserted
	// entries are evicted until the bound holds.
	MaxEntries int
	// TTL is the maximum age an entry may have and still be served.
	TTL time.Duration
	// PromoteOnHit moves an entry to the freshest position on read, giving
	// the eviction order an LRU flavor. Left false for resources that are
	// fetched by key once per screen (appointments by date).
	PromoteOnHit bool
	// HighWater triggers a one-shot diagnostic warning when the cache grows
	// past it. Zero means 90% of MaxEntries.
	HighWater int
	// Metrics receives eviction counts. Nil means no-op.
	Metrics observability.Metrics
	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// TTLCache is a size-bounded, time-expiring key/value store with
// insertion-order eviction. The zero value is not usable; construct with New.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = oldest inserted

	resource  string
	max       int
	ttl       time.Duration
	promote   bool
	highWater int
	metrics   observability.Metrics
	now       func() time.Time

	highWaterOnce sync.Once
}

// New creates a TTLCache with the given options.
func New[V any](opts Options) *TTLCache[V] {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 500
	}
	if opts.HighWater <= 0 {
		opts.HighWater = opts.MaxEntries * 9 / 10
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TTLCache[V]{
		entries:   make(map[string]*list.Element),
		order:     list.New(),
		resource:  opts.Resource,
		max:       opts.MaxEntries,
		ttl:       opts.TTL,
		promote:   opts.PromoteOnHit,
		highWater: opts.HighWater,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
}

// Get returns the value for key if present and fresh. Expired entries are
// removed on the way out and reported as a miss.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[V])
	if c.expired(ent) {
		c.removeElement(el)
		return zero, false
	}

	if c.promote {
		c.order.MoveToBack(el)
	}
	return ent.value, true
}

// Has reports whether key holds a fresh entry, without promoting it.
func (c *TTLCache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.expired(el.Value.(*entry[V])) {
		c.removeElement(el)
		return false
	}
	return true
}

// Set stores value under key at the freshest position (delete-then-insert),
// then evicts oldest-inserted entries while the size bound is exceeded.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	el := c.order.PushBack(&entry[V]{key: key, value: value, storedAt: c.now()})
	c.entries[key] = el

	for len(c.entries) > c.max {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		c.metrics.CacheEviction(c.resource)
	}

	if len(c.entries) >= c.highWater {
		c.highWaterOnce.Do(func() {
			logger.WithComponent("cache").Warnf(
				"%s cache reached %d of %d entries; check key cardinality",
				c.resource, len(c.entries), c.max)
		})
	}
}

// Delete removes key, reporting whether it was present.
func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// the number removed. Used for tenant- or resource-wide invalidation.
func (c *TTLCache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included until
// they are touched.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[V]) expired(ent *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(ent.storedAt) > c.ttl
}

// removeElement deletes an entry; caller must hold the lock.
func (c *TTLCache[V]) removeElement(el *list.Element) {
	ent := el.Value.(*entry[V])
	c.order.Remove(el)
	delete(c.entries, ent.key)
}
