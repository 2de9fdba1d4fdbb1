package repository

import (
	"context"
	"time"

	"github.com/curamed/chartcache/internal/cache"
	"github.com/curamed/chartcache/internal/observability"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/tenant"
)

// SuggestionAPI is the slice of the remote client the suggestion
// repository needs.
type SuggestionAPI interface {
	ListSuggestions(ctx context.Context, scope tenant.Scope, category string) ([]remote.Suggestion, error)
}

// MasterDataAPI is the slice of the remote client the master-data
// repository needs.
type MasterDataAPI interface {
	ListMasterData(ctx context.Context, scope tenant.Scope, category string) ([]remote.MasterItem, error)
}

type ListOptions struct {
	MaxEntries int
	TTL        time.Duration
	Metrics    observability.Metrics
}

// SuggestionRepository caches consultation suggestions and prescription
// templates per category.
type SuggestionRepository struct {
	api        SuggestionAPI
	byCategory *cache.Fetcher[[]remote.Suggestion]
}

func NewSuggestionRepository(api SuggestionAPI, opts ListOptions) *SuggestionRepository {
	byCategory := cache.NewFetcher(cache.New[[]remote.Suggestion](cache.Options{
		Resource:   "suggestion",
		MaxEntries: opts.MaxEntries,
		TTL:        opts.TTL,
		Metrics:    opts.Metrics,
	}), opts.Metrics)

	return &SuggestionRepository{api: api, byCategory: byCategory}
}

// List returns the doctor's suggestions for a category.
func (r *SuggestionRepository) List(ctx context.Context, scope tenant.Scope, category string) ([]remote.Suggestion, error) {
	key := scope.Key("suggestions", category)
	return r.byCategory.Fetch(ctx, key, func(ctx context.Context) ([]remote.Suggestion, error) {
		return r.api.ListSuggestions(ctx, scope, category)
	})
}

// Invalidate drops one category (called after the doctor edits their
// suggestion lists).
func (r *SuggestionRepository) Invalidate(scope tenant.Scope, category string) {
	r.byCategory.Invalidate(scope.Key("suggestions", category))
}

// InvalidateTenant drops every category for the scope.
func (r *SuggestionRepository) InvalidateTenant(scope tenant.Scope) {
	r.byCategory.InvalidatePrefix(scope.Prefix())
}

// MasterDataRepository caches clinic-wide pick lists (diagnoses,
// procedures, referral reasons). These change rarely; the TTL mostly
// guards against unbounded staleness across long sessions.
type MasterDataRepository struct {
	api        MasterDataAPI
	byCategory *cache.Fetcher[[]remote.MasterItem]
}

func NewMasterDataRepository(api MasterDataAPI, opts ListOptions) *MasterDataRepository {
	byCategory := cache.NewFetcher(cache.New[[]remote.MasterItem](cache.Options{
		Resource:   "masterdata",
		MaxEntries: opts.MaxEntries,
		TTL:        opts.TTL,
		Metrics:    opts.Metrics,
	}), opts.Metrics)

	return &MasterDataRepository{api: api, byCategory: byCategory}
}

// List returns the master-data items for a category.
func (r *MasterDataRepository) List(ctx context.Context, scope tenant.Scope, category string) ([]remote.MasterItem, error) {
	key := scope.Key("masterdata", category)
	return r.byCategory.Fetch(ctx, key, func(ctx context.Context) ([]remote.MasterItem, error) {
		return r.api.ListMasterData(ctx, scope, category)
	})
}

// InvalidateTenant drops every category for the scope.
func (r *MasterDataRepository) InvalidateTenant(scope tenant.Scope) {
	r.byCategory.InvalidatePrefix(scope.Prefix())
}
