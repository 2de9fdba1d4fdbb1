package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/curamed/chartcache/internal/tenant"
)

// Executor performs the coalesced backend search once per settled query.
type Executor[R any] func(ctx context.Context, scope tenant.Scope, query string) ([]R, error)

type result[R any] struct {
	items []R
	err   error
}

type pendingQuery[R any] struct {
	scope    tenant.Scope
	query    string // trimmed query as sent to the backend
	timer    *time.Timer
	waiters  []chan result[R]
	inFlight bool
}

// Debouncer coalesces rapid-fire search calls. Each distinct normalized
// query gets one debounce timer; repeat calls reset it and join the waiter
// list, and calls arriving while the request is in flight join as well.
// All waiters for a query settle with the same outcome.
type Debouncer[R any] struct {
	// baseCtx drives the coalesced request, so one waiter's short request
	// deadline cannot fail the shared result.
	baseCtx context.Context
	delay   time.Duration
	exec    Executor[R]

	mu      sync.Mutex
	pending map[string]*pendingQuery[R]
}

// NewDebouncer creates a Debouncer firing exec after delay of quiet time.
func NewDebouncer[R any](baseCtx context.Context, delay time.Duration, exec Executor[R]) *Debouncer[R] {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &Debouncer[R]{
		baseCtx: baseCtx,
		delay:   delay,
		exec:    exec,
		pending: make(map[string]*pendingQuery[R]),
	}
}

// Search registers the caller for the query's coalesced result. Empty and
// whitespace-only queries resolve to an empty slice immediately, with no
// timer and no network call.
func (d *Debouncer[R]) Search(ctx context.Context, scope tenant.Scope, query string) ([]R, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []R{}, nil
	}
	key := scope.Key("search", strings.ToLower(trimmed))

	// Buffered so the firing goroutine never blocks on an abandoned waiter.
	ch := make(chan result[R], 1)

	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok {
		p = &pendingQuery[R]{scope: scope, query: trimmed}
		p.timer = time.AfterFunc(d.delay, func() { d.fire(key) })
		d.pending[key] = p
	} else if !p.inFlight {
		// A newer keystroke for the same query restarts the quiet period.
		p.timer.Stop()
		p.timer = time.AfterFunc(d.delay, func() { d.fire(key) })
	}
	p.waiters = append(p.waiters, ch)
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.items, r.err
	}
}

// fire runs the backend request for a settled query and broadcasts the
// outcome to every registered waiter.
func (d *Debouncer[R]) fire(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return
	}
	p.inFlight = true
	scope, query := p.scope, p.query
	d.mu.Unlock()

	items, err := d.exec(d.baseCtx, scope, query)
	if err != nil && errdefs.IsNotFound(err) {
		// Backends that answer "no matches" with a not-found error are
		// reporting an empty result, not a failure.
		items, err = []R{}, nil
	}
	if err == nil && items == nil {
		items = []R{}
	}

	d.mu.Lock()
	waiters := p.waiters
	delete(d.pending, key)
	d.mu.Unlock()

	for _, ch := range waiters {
		ch <- result[R]{items: items, err: err}
	}
}
