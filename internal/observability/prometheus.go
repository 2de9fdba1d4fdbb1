package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics exposed on /metrics. Each instance
// owns its registry so tests never trip duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec

	queueDepth     prometheus.Gauge
	uploadRetries  prometheus.Counter
	uploadDrops    prometheus.Counter

	httpRequests *prometheus.CounterVec
}

// NewCollector creates and registers all metrics under the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by resource",
		},
		[]string{"resource"},
	)
	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by resource",
		},
		[]string{"resource"},
	)
	cacheEvictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries evicted by the size bound, by resource",
		},
		[]string{"resource"},
	)

	queueDepth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_queue_depth",
			Help:      "Pending uploads waiting for delivery",
		},
	)
	uploadRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_retries_total",
			Help:      "Upload attempts that failed and were requeued",
		},
	)
	uploadDrops := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_drops_total",
			Help:      "Uploads dropped after exceeding the attempt ceiling",
		},
	)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Local API requests",
		},
		[]string{"method", "route", "status"},
	)

	registry.MustRegister(cacheHits, cacheMisses, cacheEvictions,
		queueDepth, uploadRetries, uploadDrops, httpRequests)

	return &Collector{
		registry:       registry,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		cacheEvictions: cacheEvictions,
		queueDepth:     queueDepth,
		uploadRetries:  uploadRetries,
		uploadDrops:    uploadDrops,
		httpRequests:   httpRequests,
	}
}

func (c *Collector) CacheHit(resource string)      { c.cacheHits.WithLabelValues(resource).Inc() }
func (c *Collector) CacheMiss(resource string)     { c.cacheMisses.WithLabelValues(resource).Inc() }
func (c *Collector) CacheEviction(resource string) { c.cacheEvictions.WithLabelValues(resource).Inc() }
func (c *Collector) QueueDepth(n int)              { c.queueDepth.Set(float64(n)) }
func (c *Collector) UploadRetried()                { c.uploadRetries.Inc() }
func (c *Collector) UploadDropped()                { c.uploadDrops.Inc() }

func (c *Collector) HTTPRequest(method, route string, status int) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes the collector's registry for the /metrics route.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
