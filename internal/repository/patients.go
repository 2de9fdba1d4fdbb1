package repository

import (
	"context"
	"time"

	"github.com/curamed/chartcache/internal/cache"
	"github.com/curamed/chartcache/internal/observability"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/search"
	"github.com/curamed/chartcache/internal/tenant"
)

// PatientAPI is the slice of the remote client patient repositories need.
type PatientAPI interface {
	GetPatient(ctx context.Context, scope tenant.Scope, patientID string) (remote.Patient, error)
	SearchPatients(ctx context.Context, scope tenant.Scope, query string) ([]remote.Patient, error)
	CreatePatient(ctx context.Context, scope tenant.Scope, p remote.Patient) (remote.Patient, error)
	UpdatePatient(ctx context.Context, scope tenant.Scope, p remote.Patient) (remote.Patient, error)
	DeletePatient(ctx context.Context, scope tenant.Scope, patientID string) error
}

// PatientOptions bounds the patient cache and search debounce.
type PatientOptions struct {
	MaxEntries int
	TTL        time.Duration
	Debounce   time.Duration
	Metrics    observability.Metrics
}

// PatientRepository serves patient details from a promote-on-hit cache
// (patients are re-read constantly while a consultation is open) and name
// searches through the shared debouncer.
type PatientRepository struct {
	api      PatientAPI
	details  *cache.Fetcher[remote.Patient]
	searcher *search.Debouncer[remote.Patient]
}

func NewPatientRepository(baseCtx context.Context, api PatientAPI, opts PatientOptions) *PatientRepository {
	details := cache.NewFetcher(cache.New[remote.Patient](cache.Options{
		Resource:     "patient",
		MaxEntries:   opts.MaxEntries,
		TTL:          opts.TTL,
		PromoteOnHit: true,
		Metrics:      opts.Metrics,
	}), opts.Metrics)

	searcher := search.NewDebouncer(baseCtx, opts.Debounce,
		func(ctx context.Context, scope tenant.Scope, query string) ([]remote.Patient, error) {
			return api.SearchPatients(ctx, scope, query)
		})

	return &PatientRepository{api: api, details: details, searcher: searcher}
}

// Get returns the patient's details, cached for the configured TTL.
func (r *PatientRepository) Get(ctx context.Context, scope tenant.Scope, patientID string) (remote.Patient, error) {
	key := scope.Key("patient", patientID)
	return r.details.Fetch(ctx, key, func(ctx context.Context) (remote.Patient, error) {
		return r.api.GetPatient(ctx, scope, patientID)
	})
}

// Refresh forces a refetch, still coalescing with an in-flight load.
func (r *PatientRepository) Refresh(ctx context.Context, scope tenant.Scope, patientID string) (remote.Patient, error) {
	key := scope.Key("patient", patientID)
	return r.details.Refresh(ctx, key, func(ctx context.Context) (remote.Patient, error) {
		return r.api.GetPatient(ctx, scope, patientID)
	})
}

// Search runs a debounced, coalesced patient name search.
func (r *PatientRepository) Search(ctx context.Context, scope tenant.Scope, query string) ([]remote.Patient, error) {
	return r.searcher.Search(ctx, scope, query)
}

// Create registers a patient and primes the details cache with the stored
// record the server returned.
func (r *PatientRepository) Create(ctx context.Context, scope tenant.Scope, p remote.Patient) (remote.Patient, error) {
	created, err := r.api.CreatePatient(ctx, scope, p)
	if err != nil {
		return remote.Patient{}, err
	}
	key := scope.Key("patient", created.ID)
	r.details.Invalidate(key)
	r.details.Cache().Set(key, created)
	return created, nil
}

// Update replaces a patient's details. The key is invalidated before the
// fresh record is primed, so an in-flight stale read cannot win.
func (r *PatientRepository) Update(ctx context.Context, scope tenant.Scope, p remote.Patient) (remote.Patient, error) {
	updated, err := r.api.UpdatePatient(ctx, scope, p)
	if err != nil {
		return remote.Patient{}, err
	}
	key := scope.Key("patient", updated.ID)
	r.details.Invalidate(key)
	r.details.Cache().Set(key, updated)
	return updated, nil
}

// Delete removes the patient remotely and locally.
func (r *PatientRepository) Delete(ctx context.Context, scope tenant.Scope, patientID string) error {
	if err := r.api.DeletePatient(ctx, scope, patientID); err != nil {
		return err
	}
	r.details.Invalidate(scope.Key("patient", patientID))
	return nil
}

// InvalidateTenant drops everything cached for the scope (sign-out,
// clinic switch).
func (r *PatientRepository) InvalidateTenant(scope tenant.Scope) {
	r.details.InvalidatePrefix(scope.Prefix())
}
