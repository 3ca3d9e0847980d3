// Package tenant defines the tenant scope that every data-access call
// must carry. A Scope can only be built from a non-empty tenant ID, so a
// repository method that takes a Scope cannot run an unscoped query:
// every statement binds the tenant ID from the scope it was handed.
package tenant

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTenantID is returned when a scope is requested for an empty tenant ID
	ErrEmptyTenantID = errors.New("tenant ID must not be empty")

	// ErrNoScopeInContext is returned when no tenant scope is attached to the context
	ErrNoScopeInContext = errors.New("no tenant scope in context")
)

// Scope identifies the tenant all queries in a request are restricted to.
// The zero Scope is invalid; use NewScope.
type Scope struct {
	tenantID string
}

// NewScope creates a scope for the given tenant ID.
func NewScope(tenantID string) (Scope, error) {
	if tenantID == "" {
		return Scope{}, ErrEmptyTenantID
	}
	return Scope{tenantID: tenantID}, nil
}

// MustScope creates a scope and panics on an empty tenant ID.
// Use only where the tenant ID is guaranteed non-empty (tests, fixtures).
func MustScope(tenantID string) Scope {
	s, err := NewScope(tenantID)
	if err != nil {
		panic(err)
	}
	return s
}

// TenantID returns the tenant ID the scope is bound to.
func (s Scope) TenantID() string {
	return s.tenantID
}

// IsZero reports whether the scope was never initialized.
func (s Scope) IsZero() bool {
	return s.tenantID == ""
}

type contextKey struct{}

// WithScope attaches a tenant scope to the context. This is done once by
// the tenant middleware; handlers read it back and pass it down explicitly.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the tenant scope attached by the middleware.
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(contextKey{}).(Scope)
	if !ok || s.IsZero() {
		return Scope{}, ErrNoScopeInContext
	}
	return s, nil
}
