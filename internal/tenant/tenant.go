package tenant

import (
	"context"
	"errors"
	"strings"
)

// Scope identifies the active clinic/doctor pair. Every cache key and queue
// record is scoped by it so that data from one tenant can never be served
// to, or evicted by, another.
type Scope struct {
	ClinicID string
	DoctorID string
}

// keySep separates key segments. It must not occur in identifiers; remote
// IDs are UUID-style, so the pipe is safe.
const keySep = "|"

var ErrNoScope = errors.New("no tenant scope in context")

// IsZero reports whether the scope is missing either identifier.
func (s Scope) IsZero() bool {
	return s.ClinicID == "" || s.DoctorID == ""
}

// Key builds a composite cache key under this scope.
func (s Scope) Key(parts ...string) string {
	segs := make([]string, 0, len(parts)+2)
	segs = append(segs, s.ClinicID, s.DoctorID)
	segs = append(segs, parts...)
	return strings.Join(segs, keySep)
}

// Prefix returns the key prefix shared by every key under this scope,
// suitable for tenant-wide invalidation.
func (s Scope) Prefix() string {
	return s.ClinicID + keySep + s.DoctorID + keySep
}

type ctxKey struct{}

// NewContext returns a context carrying the given scope.
func NewContext(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the scope placed by NewContext.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(ctxKey{}).(Scope)
	if !ok || s.IsZero() {
		return Scope{}, ErrNoScope
	}
	return s, nil
}
