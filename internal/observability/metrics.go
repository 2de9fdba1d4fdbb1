package observability

// Metrics is the instrumentation hook injected into the cache, queue and
// HTTP layers. The default is Noop; the agent wires the Prometheus
// collector in production.
type Metrics interface {
	CacheHit(resource string)
	CacheMiss(resource string)
	CacheEviction(resource string)
	QueueDepth(n int)
	UploadRetried()
	UploadDropped()
	HTTPRequest(method, route string, status int)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) CacheHit(string)                 {}
func (Noop) CacheMiss(string)                {}
func (Noop) CacheEviction(string)            {}
func (Noop) QueueDepth(int)                  {}
func (Noop) UploadRetried()                  {}
func (Noop) UploadDropped()                  {}
func (Noop) HTTPRequest(string, string, int) {}
