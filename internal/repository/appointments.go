package repository

import (
	"context"
	"time"

	"github.com/curamed/chartcache/internal/cache"
	"github.com/curamed/chartcache/internal/observability"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/tenant"
)

// AppointmentAPI is the slice of the remote client this repository needs.
type AppointmentAPI interface {
	ListAppointments(ctx context.Context, scope tenant.Scope, date string) ([]remote.Appointment, error)
	CreateAppointment(ctx context.Context, scope tenant.Scope, a remote.Appointment) (remote.Appointment, error)
	CancelAppointment(ctx context.Context, scope tenant.Scope, appointmentID string) error
}

type AppointmentOptions struct {
	MaxEntries int
	TTL        time.Duration
	Metrics    observability.Metrics
}

// AppointmentRepository caches the day lists the agenda screen reads.
// Appointments change under other users' hands, so the TTL is short and
// hits are not promoted: a day is looked up once per screen, not re-read.
type AppointmentRepository struct {
	api    AppointmentAPI
	byDate *cache.Fetcher[[]remote.Appointment]
}

func NewAppointmentRepository(api AppointmentAPI, opts AppointmentOptions) *AppointmentRepository {
	byDate := cache.NewFetcher(cache.New[[]remote.Appointment](cache.Options{
		Resource:   "appointment",
		MaxEntries: opts.MaxEntries,
		TTL:        opts.TTL,
		Metrics:    opts.Metrics,
	}), opts.Metrics)

	return &AppointmentRepository{api: api, byDate: byDate}
}

// ListByDate returns the doctor's appointments for one day (YYYY-MM-DD).
func (r *AppointmentRepository) ListByDate(ctx context.Context, scope tenant.Scope, date string) ([]remote.Appointment, error) {
	key := r.dateKey(scope, date)
	return r.byDate.Fetch(ctx, key, func(ctx context.Context) ([]remote.Appointment, error) {
		return r.api.ListAppointments(ctx, scope, date)
	})
}

// Refresh forces a refetch of one day.
func (r *AppointmentRepository) Refresh(ctx context.Context, scope tenant.Scope, date string) ([]remote.Appointment, error) {
	key := r.dateKey(scope, date)
	return r.byDate.Refresh(ctx, key, func(ctx context.Context) ([]remote.Appointment, error) {
		return r.api.ListAppointments(ctx, scope, date)
	})
}

// Create books a visit and invalidates the affected day before returning,
// so the next agenda read sees it.
func (r *AppointmentRepository) Create(ctx context.Context, scope tenant.Scope, a remote.Appointment) (remote.Appointment, error) {
	created, err := r.api.CreateAppointment(ctx, scope, a)
	if err != nil {
		return remote.Appointment{}, err
	}
	r.byDate.Invalidate(r.dateKey(scope, created.Date))
	return created, nil
}

// Cancel cancels a visit and invalidates its day.
func (r *AppointmentRepository) Cancel(ctx context.Context, scope tenant.Scope, appointmentID, date string) error {
	if err := r.api.CancelAppointment(ctx, scope, appointmentID); err != nil {
		return err
	}
	r.byDate.Invalidate(r.dateKey(scope, date))
	return nil
}

// InvalidateTenant drops every cached day for the scope.
func (r *AppointmentRepository) InvalidateTenant(scope tenant.Scope) {
	r.byDate.InvalidatePrefix(scope.Prefix())
}

func (r *AppointmentRepository) dateKey(scope tenant.Scope, date string) string {
	return scope.Key("appointments", date)
}
