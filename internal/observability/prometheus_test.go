package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_CountsAndExposes(t *testing.T) {
	c := NewCollector("chartcache")

	c.CacheHit("patient")
	c.CacheHit("patient")
	c.CacheMiss("patient")
	c.CacheEviction("appointment")
	c.QueueDepth(3)
	c.UploadRetried()
	c.UploadDropped()
	c.HTTPRequest(http.MethodGet, "/patients/:id", http.StatusOK)

	if got := testutil.ToFloat64(c.cacheHits.WithLabelValues("patient")); got != 2 {
		t.Errorf("expected 2 patient hits, got %v", got)
	}
	if got := testutil.ToFloat64(c.queueDepth); got != 3 {
		t.Errorf("expected queue depth 3, got %v", got)
	}
	if got := testutil.ToFloat64(c.uploadDrops); got != 1 {
		t.Errorf("expected 1 drop, got %v", got)
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	body := w.Body.String()
	for _, metric := range []string{
		"chartcache_cache_hits_total",
		"chartcache_upload_queue_depth",
		"chartcache_http_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %s in /metrics output", metric)
		}
	}
}

// Two collectors must be able to coexist, e.g. across parallel tests.
func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("chartcache")
	b := NewCollector("chartcache")

	a.CacheHit("patient")
	if got := testutil.ToFloat64(b.cacheHits.WithLabelValues("patient")); got != 0 {
		t.Errorf("collectors must not share state, got %v", got)
	}
}
