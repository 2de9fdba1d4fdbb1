package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/containerd/errdefs"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	honeybadger "github.com/honeybadger-io/honeybadger-go"

	"github.com/curamed/chartcache/internal/logger"
	"github.com/curamed/chartcache/internal/observability"
	"github.com/curamed/chartcache/internal/remote"
)

// Uploader delivers one pending upload. The remote client satisfies it.
type Uploader interface {
	UploadArtifact(ctx context.Context, upload remote.ArtifactUpload) error
}

// Options configures a Queue.
type Options struct {
	Store         DurableStore
	Uploader      Uploader
	RetryInterval time.Duration
	MaxAttempts   int
	Metrics       observability.Metrics
}

// Queue is the durable offline mutation queue for artifact uploads. Items
// survive process restarts through the DurableStore, are retried on a fixed
// interval and on Wake signals, and are dropped after MaxAttempts failures.
// The in-memory slice is authoritative for the running process; persistence
// failures are logged, never propagated.
type Queue struct {
	store       DurableStore
	uploader    Uploader
	interval    time.Duration
	maxAttempts int
	metrics     observability.Metrics
	validate    *validator.Validate

	initOnce sync.Once

	mu    sync.Mutex
	items []PendingUpload

	// processing is the flush mutual exclusion: at most one drain at a time.
	processing atomic.Bool

	wake chan struct{}
}

// NewQueue builds a queue; Initialize must be called before use.
func NewQueue(opts Options) *Queue {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 20 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 20
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.Noop{}
	}

	return &Queue{
		store:       opts.Store,
		uploader:    opts.Uploader,
		interval:    opts.RetryInterval,
		maxAttempts: opts.MaxAttempts,
		metrics:     opts.Metrics,
		validate:    validator.New(),
		wake:        make(chan struct{}, 1),
	}
}

// Initialize loads the persisted queue and starts the retry loop. It is
// idempotent; concurrent calls share the single initialization.
func (q *Queue) Initialize(ctx context.Context) {
	q.initOnce.Do(func() {
		q.loadPersisted(ctx)

		go q.run(ctx)

		if q.Pending() > 0 {
			logger.WithComponent("queue").Infof("%d pending uploads loaded, flushing", q.Pending())
			go q.Flush(ctx)
		}
	})
}

// Enqueue appends a new pending upload, persists the queue and triggers a
// flush. Only a malformed record is reported back; persistence problems are
// swallowed per the durability contract.
func (q *Queue) Enqueue(ctx context.Context, item PendingUpload) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().UnixMilli()
	}
	item.Attempts = 0

	if err := q.validate.Struct(&item); err != nil {
		return fmt.Errorf("invalid pending upload: %w: %v", errdefs.ErrInvalidArgument, err)
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.persistLocked(ctx)
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.QueueDepth(depth)
	logger.WithComponent("queue").Infof("queued artifact upload for consultation %s (%d pending)", item.ConsultationID, depth)

	q.Wake()
	return nil
}

// Wake requests an opportunistic flush (the UI calls this when the app
// returns to the foreground). Non-blocking; a pending wake is enough.
func (q *Queue) Wake() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the current queue depth for the UI indicator.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Flush drains a snapshot of the queue, attempting each upload once. Failed
// items are requeued with attempts incremented, or dropped at the ceiling.
// A flush already in progress makes this call a no-op.
func (q *Queue) Flush(ctx context.Context) {
	if !q.processing.CompareAndSwap(false, true) {
		logger.WithComponent("queue").Debugf("flush already in progress, skipping")
		return
	}
	defer q.processing.Store(false)

	// Length is captured once so items requeued (or enqueued) during the
	// drain are not retried in the same pass.
	q.mu.Lock()
	n := len(q.items)
	q.mu.Unlock()

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			logger.WithComponent("queue").Debugf("flush cancelled: %v", ctx.Err())
			break
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			break
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		err := q.uploader.UploadArtifact(ctx, item.Artifact())
		if err == nil {
			logger.WithComponent("queue").Infof("delivered artifact for consultation %s after %d retries", item.ConsultationID, item.Attempts)
			continue
		}

		item.Attempts++
		item.LastError = err.Error()

		if item.Attempts >= q.maxAttempts {
			q.metrics.UploadDropped()
			logger.WithComponent("queue").Errorf("dropping upload %s for consultation %s after %d attempts: %v",
				item.ID, item.ConsultationID, item.Attempts, err)
			q.reportDrop(item, err)
			continue
		}

		q.metrics.UploadRetried()
		logger.WithComponent("queue").Warnf("upload %s failed (attempt %d/%d): %v", item.ID, item.Attempts, q.maxAttempts, err)
		q.mu.Lock()
		q.items = append(q.items, item)
		q.mu.Unlock()
	}

	q.mu.Lock()
	q.persistLocked(ctx)
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.QueueDepth(depth)
}

// Reload re-reads the persisted queue, used when another writer changed the
// store file. Skipped while a flush owns the queue.
func (q *Queue) Reload(ctx context.Context) {
	if q.processing.Load() {
		logger.WithComponent("queue").Debugf("flush in progress, skipping reload")
		return
	}
	q.loadPersisted(ctx)
}

// run is the retry loop: fixed-interval ticks plus Wake signals.
func (q *Queue) run(ctx context.Context) {
	logger.WithComponent("queue").Debugf("retry loop started with interval %v", q.interval)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WithComponent("queue").Info("retry loop stopped")
			return
		case <-ticker.C:
			if q.Pending() > 0 {
				q.Flush(ctx)
			}
		case <-q.wake:
			if q.Pending() > 0 {
				q.Flush(ctx)
			}
		}
	}
}

// loadPersisted replaces the in-memory queue with the durable copy. A
// missing or unreadable payload starts the queue empty rather than failing.
func (q *Queue) loadPersisted(ctx context.Context) {
	data, err := q.store.Read(ctx)
	if err != nil {
		logger.WithComponent("queue").Errorf("read persisted queue: %v", err)
		return
	}

	var items []PendingUpload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			logger.WithComponent("queue").Warnf("persisted queue is corrupt, starting empty: %v", err)
			items = nil
		}
	}

	// Malformed records are skipped, not fatal; the rest of the queue still
	// deserves delivery.
	valid := items[:0]
	for _, item := range items {
		if err := q.validate.Struct(&item); err != nil {
			logger.WithComponent("queue").Warnf("skipping invalid persisted upload %q: %v", item.ID, err)
			continue
		}
		valid = append(valid, item)
	}

	q.mu.Lock()
	q.items = valid
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.QueueDepth(depth)
	if depth > 0 {
		logger.WithComponent("queue").Debugf("loaded %d pending uploads", depth)
	}
}

// persistLocked writes the queue to the durable store; caller must hold the
// lock. An empty queue deletes the persisted payload instead of writing [].
// I/O errors are logged and swallowed: the in-memory queue stays
// authoritative for this process.
func (q *Queue) persistLocked(ctx context.Context) {
	if len(q.items) == 0 {
		if err := q.store.Delete(ctx); err != nil {
			logger.WithComponent("queue").Errorf("delete persisted queue: %v", err)
		}
		return
	}

	payload, err := json.MarshalIndent(q.items, "", "  ")
	if err != nil {
		logger.WithComponent("queue").Errorf("marshal queue: %v", err)
		return
	}
	if err := q.store.Write(ctx, payload); err != nil {
		logger.WithComponent("queue").Errorf("persist queue: %v", err)
	}
}

// reportDrop notifies the error tracker about a permanently lost artifact,
// when error reporting is configured.
func (q *Queue) reportDrop(item PendingUpload, err error) {
	if os.Getenv("HONEYBADGER_API_KEY") == "" {
		return
	}
	honeybadger.Notify(
		fmt.Sprintf("Dropped artifact upload after %d attempts: %v", item.Attempts, err),
		honeybadger.Context{
			"uploadId":       item.ID,
			"consultationId": item.ConsultationID,
			"patientId":      item.PatientID,
		},
		honeybadger.Tags{"upload", "dropped"},
	)
}
