package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// TestTenantID is the tenant used by fixtures unless overridden.
const TestTenantID = "11111111-1111-1111-1111-111111111111"

// TestScope returns a tenant scope for the fixture tenant.
func TestScope() tenant.Scope {
	return tenant.MustScope(TestTenantID)
}

// StrPtr returns a pointer to the given string.
func StrPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to the given float64.
func Float64Ptr(f float64) *float64 {
	return &f
}

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// NewID returns a fresh UUID string.
func NewID() string {
	return uuid.New().String()
}

// Date builds a UTC timestamp for the given day at noon, which keeps
// fixtures away from month boundaries in any timezone.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}
