package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/tenant"
)

type fakeListAPI struct {
	mu          sync.Mutex
	suggestions int
	masterData  int
}

func (f *fakeListAPI) ListSuggestions(_ context.Context, _ tenant.Scope, category string) ([]remote.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestions++
	return []remote.Suggestion{{ID: "s1", Category: category, Text: "canned text"}}, nil
}

func (f *fakeListAPI) ListMasterData(_ context.Context, _ tenant.Scope, category string) ([]remote.MasterItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.masterData++
	return []remote.MasterItem{{ID: "m1", Category: category, Label: "canned label"}}, nil
}

func TestSuggestionRepository_CachesPerCategory(t *testing.T) {
	api := &fakeListAPI{}
	repo := NewSuggestionRepository(api, ListOptions{MaxEntries: 100, TTL: time.Minute})
	ctx := context.Background()

	repo.List(ctx, testScope, "anamnesis")
	repo.List(ctx, testScope, "anamnesis")
	repo.List(ctx, testScope, "diagnosis")

	api.mu.Lock()
	calls := api.suggestions
	api.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected one read per category, got %d", calls)
	}
}

func TestSuggestionRepository_InvalidateSingleCategory(t *testing.T) {
	api := &fakeListAPI{}
	repo := NewSuggestionRepository(api, ListOptions{MaxEntries: 100, TTL: time.Minute})
	ctx := context.Background()

	repo.List(ctx, testScope, "anamnesis")
	repo.List(ctx, testScope, "diagnosis")

	repo.Invalidate(testScope, "anamnesis")

	repo.List(ctx, testScope, "anamnesis")
	repo.List(ctx, testScope, "diagnosis")

	api.mu.Lock()
	calls := api.suggestions
	api.mu.Unlock()
	// Only the invalidated category is re-read.
	if calls != 3 {
		t.Errorf("expected 3 reads, got %d", calls)
	}
}

func TestMasterDataRepository_CachesPerCategory(t *testing.T) {
	api := &fakeListAPI{}
	repo := NewMasterDataRepository(api, ListOptions{MaxEntries: 100, TTL: time.Minute})
	ctx := context.Background()

	items, err := repo.List(ctx, testScope, "diagnoses")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Label != "canned label" {
		t.Errorf("unexpected items %v", items)
	}

	repo.List(ctx, testScope, "diagnoses")
	repo.InvalidateTenant(testScope)
	repo.List(ctx, testScope, "diagnoses")

	api.mu.Lock()
	calls := api.masterData
	api.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected a reload only after tenant invalidation, got %d reads", calls)
	}
}
