package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/curamed/chartcache/internal/logger"
)

// DurableStore is the capability the queue needs from platform storage: one
// opaque payload that can be read, replaced and removed. Implementations
// must make Write atomic so a crash never leaves a half-written queue.
type DurableStore interface {
	// Read returns the persisted payload, or (nil, nil) when none exists.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// FileStore persists the payload as a single file, written atomically via
// temp file + rename.
type FileStore struct {
	path string
	dir  string
	base string
	mu   sync.Mutex
}

// NewFileStore creates a store for the given file path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store file path is required")
	}

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	return &FileStore{path: path, dir: dir, base: filepath.Base(path)}, nil
}

func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, s.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}

func (s *FileStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove store file: %w", err)
	}
	return nil
}

// StartWatcher listens for external changes to the store file and calls
// onChange after a debounce. It watches the parent directory (not the file)
// so atomic replace sequences (temp+rename) are still observed. The caller
// owns the context: cancel it to stop the goroutine and close the watcher.
func (s *FileStore) StartWatcher(ctx context.Context, onChange func()) error {
	if onChange == nil {
		return errors.New("onChange callback is required")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename)
		// into a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}
			debounce = time.AfterFunc(200*time.Millisecond, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != s.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("queue-store").Errorf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MemoryStore keeps the payload in memory. It backs tests and platforms
// without a usable filesystem.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	present bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *MemoryStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
	s.present = true
	return nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.present = false
	return nil
}
