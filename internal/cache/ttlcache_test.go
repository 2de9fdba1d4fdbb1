package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestTTLCache_SetGet(t *testing.T) {
	c := New[string](Options{Resource: "test", MaxEntries: 10, TTL: time.Minute})

	c.Set("a", "value-a")

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if got != "value-a" {
		t.Errorf("expected value-a, got %q", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestTTLCache_TTLBoundary(t *testing.T) {
	clock := newFakeClock()
	ttl := 10 * time.Minute
	c := New[string](Options{Resource: "test", MaxEntries: 10, TTL: ttl, Now: clock.Now})

	c.Set("a", "value-a")

	// One tick before expiry is still a hit.
	clock.Advance(ttl - time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("expected hit just before TTL")
	}

	// Past expiry is a miss and the entry is gone.
	clock.Advance(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss just after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestTTLCache_BoundedGrowth(t *testing.T) {
	const maxEntries = 5
	const extra = 3
	c := New[int](Options{Resource: "test", MaxEntries: maxEntries, TTL: time.Minute})

	for i := 0; i < maxEntries+extra; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}

	if c.Len() != maxEntries {
		t.Fatalf("expected len %d, got %d", maxEntries, c.Len())
	}

	// The oldest-inserted keys must have been evicted.
	for i := 0; i < extra; i++ {
		if c.Has(fmt.Sprintf("key-%d", i)) {
			t.Errorf("expected key-%d to be evicted", i)
		}
	}
	for i := extra; i < maxEntries+extra; i++ {
		if !c.Has(fmt.Sprintf("key-%d", i)) {
			t.Errorf("expected key-%d to be present", i)
		}
	}
}

func TestTTLCache_SetReinsertsAtFreshestPosition(t *testing.T) {
	c := New[int](Options{Resource: "test", MaxEntries: 2, TTL: time.Minute})

	c.Set("a", 1)
	c.Set("b", 2)
	// Re-setting a moves it to the freshest end, so c evicts b.
	c.Set("a", 10)
	c.Set("c", 3)

	if c.Has("b") {
		t.Error("expected b to be evicted")
	}
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("expected refreshed value 10 for a, got %d", got)
	}
	if !c.Has("c") {
		t.Error("expected c to be present")
	}
}

func TestTTLCache_PromoteOnHit(t *testing.T) {
	tests := []struct {
		name         string
		promote      bool
		wantEvicted  string
		wantRetained string
	}{
		{
			name:    "promotion keeps the re-read entry",
			promote: true,
			// a was read after b was inserted, so b is now oldest.
			wantEvicted:  "b",
			wantRetained: "a",
		},
		{
			name:    "no promotion keeps pure insertion order",
			promote: false,
			// Reading a does not move it; a is still oldest.
			wantEvicted:  "a",
			wantRetained: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int](Options{Resource: "test", MaxEntries: 2, TTL: time.Minute, PromoteOnHit: tt.promote})

			c.Set("a", 1)
			c.Set("b", 2)
			c.Get("a")
			c.Set("c", 3)

			if c.Has(tt.wantEvicted) {
				t.Errorf("expected %s to be evicted", tt.wantEvicted)
			}
			if !c.Has(tt.wantRetained) {
				t.Errorf("expected %s to be retained", tt.wantRetained)
			}
		})
	}
}

func TestTTLCache_Delete(t *testing.T) {
	c := New[int](Options{Resource: "test", MaxEntries: 10, TTL: time.Minute})

	c.Set("a", 1)
	if !c.Delete("a") {
		t.Error("expected Delete to report the key was present")
	}
	if c.Delete("a") {
		t.Error("expected Delete to report the key was absent")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
}

func TestTTLCache_DeletePrefix_TenantIsolation(t *testing.T) {
	c := New[int](Options{Resource: "test", MaxEntries: 10, TTL: time.Minute})

	// Same resource IDs under two tenants must never collide.
	c.Set("clinic-1|doc-1|patient|p1", 1)
	c.Set("clinic-1|doc-1|patient|p2", 2)
	c.Set("clinic-2|doc-9|patient|p1", 3)

	removed := c.DeletePrefix("clinic-1|doc-1|")
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	if c.Has("clinic-1|doc-1|patient|p1") {
		t.Error("expected tenant 1 entries to be gone")
	}
	got, ok := c.Get("clinic-2|doc-9|patient|p1")
	if !ok || got != 3 {
		t.Error("expected tenant 2 entry to survive tenant 1 invalidation")
	}
}
