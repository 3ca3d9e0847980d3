package tenant_test

import (
	"context"
	"testing"

	"github.com/siteops/siteops-backend/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScope(t *testing.T) {
	s, err := tenant.NewScope("tenant-123")
	require.NoError(t, err)
	assert.Equal(t, "tenant-123", s.TenantID())
	assert.False(t, s.IsZero())
}

func TestNewScope_EmptyTenantID(t *testing.T) {
	_, err := tenant.NewScope("")
	assert.ErrorIs(t, err, tenant.ErrEmptyTenantID)
}

func TestMustScope_Panics(t *testing.T) {
	assert.Panics(t, func() {
		tenant.MustScope("")
	})
}

func TestScopeContextRoundTrip(t *testing.T) {
	s := tenant.MustScope("tenant-abc")
	ctx := tenant.WithScope(context.Background(), s)

	got, err := tenant.FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tenant-abc", got.TenantID())
}

func TestFromContext_Missing(t *testing.T) {
	_, err := tenant.FromContext(context.Background())
	assert.ErrorIs(t, err, tenant.ErrNoScopeInContext)
}
