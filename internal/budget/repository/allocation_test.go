package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

func TestAllocationRepository_Create(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)
	scope := testutil.TestScope()

	alloc := &repository.Allocation{
		Category:   "HVAC",
		FiscalYear: 2026,
		Amount:     10000,
	}

	mockDB.ExpectQuery("INSERT INTO budget_allocations").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(testutil.Date(2026, 1, 1), testutil.Date(2026, 1, 1)))

	err := repo.Create(context.Background(), scope, alloc)
	require.NoError(t, err)

	assert.NotEmpty(t, alloc.ID)
	assert.Equal(t, testutil.TestTenantID, alloc.TenantID)
	assert.Equal(t, "HVAC", alloc.Category)
	mockDB.ExpectationsWereMet(t)
}

func TestAllocationRepository_CreateDefaultsCategory(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)

	alloc := &repository.Allocation{FiscalYear: 2026, Amount: 5000}

	mockDB.ExpectQuery("INSERT INTO budget_allocations").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(testutil.Date(2026, 1, 1), testutil.Date(2026, 1, 1)))

	err := repo.Create(context.Background(), testutil.TestScope(), alloc)
	require.NoError(t, err)
	assert.Equal(t, repository.CategoryTotal, alloc.Category)
}

func TestAllocationRepository_GetByID(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)
	id := testutil.NewID()

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "location_id", "category", "fiscal_year",
		"amount", "notes", "spent_amount", "created_at", "updated_at",
	}).AddRow(id, testutil.TestTenantID, nil, "HVAC", 2026,
		10000.0, nil, 0.0, testutil.Date(2026, 1, 1), testutil.Date(2026, 1, 1))

	mockDB.ExpectQuery("FROM budget_allocations").
		WithArgs(testutil.TestTenantID, id).
		WillReturnRows(rows)

	alloc, err := repo.GetByID(context.Background(), testutil.TestScope(), id)
	require.NoError(t, err)

	assert.Equal(t, id, alloc.ID)
	assert.Equal(t, "HVAC", alloc.Category)
	assert.Equal(t, 10000.0, alloc.Amount)
	mockDB.ExpectationsWereMet(t)
}

func TestAllocationRepository_GetByIDNotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)
	id := testutil.NewID()

	mockDB.ExpectQuery("FROM budget_allocations").
		WithArgs(testutil.TestTenantID, id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), testutil.TestScope(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAllocationRepository_GetByKeyMissing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)

	mockDB.ExpectQuery("FROM budget_allocations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	alloc, err := repo.GetByKey(context.Background(), testutil.TestScope(), nil, "HVAC", 2026)
	require.NoError(t, err)
	assert.Nil(t, alloc)
}

func TestAllocationRepository_ListByYear(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)

	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "location_id", "category", "fiscal_year",
		"amount", "notes", "spent_amount", "created_at", "updated_at",
	}).
		AddRow(testutil.NewID(), testutil.TestTenantID, nil, "Electrical", 2026,
			3000.0, nil, 0.0, testutil.Date(2026, 1, 1), testutil.Date(2026, 1, 1)).
		AddRow(testutil.NewID(), testutil.TestTenantID, nil, "HVAC", 2026,
			10000.0, nil, 0.0, testutil.Date(2026, 1, 1), testutil.Date(2026, 1, 1))

	mockDB.ExpectQuery("FROM budget_allocations").
		WithArgs(testutil.TestTenantID, 2026).
		WillReturnRows(rows)

	allocs, err := repo.ListByYear(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, "Electrical", allocs[0].Category)
	assert.Equal(t, "HVAC", allocs[1].Category)
}

func TestAllocationRepository_UpdateNotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)

	mockDB.ExpectExec("UPDATE budget_allocations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), testutil.TestScope(), &repository.Allocation{
		ID:       testutil.NewID(),
		Category: "HVAC",
		Amount:   5000,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAllocationRepository_SoftDelete(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewAllocationRepository(mockDB.DB)
	id := testutil.NewID()

	mockDB.ExpectExec("UPDATE budget_allocations SET deleted_at").
		WithArgs(testutil.TestTenantID, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDelete(context.Background(), testutil.TestScope(), id)
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}
