package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

// fakeStore backs the budget service with in-memory data for tests.
type fakeStore struct {
	allocs  []*repository.Allocation
	records []repository.CostRecord

	created []*repository.Allocation
	updated []*repository.Allocation
	deleted []string
}

func (f *fakeStore) Create(_ context.Context, _ tenant.Scope, alloc *repository.Allocation) error {
	if alloc.ID == "" {
		alloc.ID = testutil.NewID()
	}
	f.allocs = append(f.allocs, alloc)
	f.created = append(f.created, alloc)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, _ tenant.Scope, id string) (*repository.Allocation, error) {
	for _, a := range f.allocs {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NotFound("budget allocation")
}

func (f *fakeStore) GetByKey(_ context.Context, _ tenant.Scope, locationID *string, category string, fiscalYear int) (*repository.Allocation, error) {
	for _, a := range f.allocs {
		if a.FiscalYear != fiscalYear || !strings.EqualFold(a.Category, category) {
			continue
		}
		if (a.LocationID == nil) != (locationID == nil) {
			continue
		}
		if a.LocationID != nil && *a.LocationID != *locationID {
			continue
		}
		return a, nil
	}
	return nil, nil
}

func (f *fakeStore) ListByYear(_ context.Context, _ tenant.Scope, fiscalYear int) ([]*repository.Allocation, error) {
	var out []*repository.Allocation
	for _, a := range f.allocs {
		if a.FiscalYear == fiscalYear {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, _ tenant.Scope, alloc *repository.Allocation) error {
	f.updated = append(f.updated, alloc)
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, _ tenant.Scope, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListCompleted(_ context.Context, _ tenant.Scope, start, end time.Time, locationID *string) ([]repository.CostRecord, error) {
	var out []repository.CostRecord
	for _, rec := range f.records {
		if rec.CompletedAt.Before(start) || !rec.CompletedAt.Before(end) {
			continue
		}
		if locationID != nil && (rec.LocationID == nil || *rec.LocationID != *locationID) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func newService(store *fakeStore) *service.BudgetService {
	return service.NewBudgetService(store, store, logger.New("budget-test", "development"))
}

func allocation(category string, year int, amount float64) *repository.Allocation {
	return &repository.Allocation{
		ID:         testutil.NewID(),
		Category:   category,
		FiscalYear: year,
		Amount:     amount,
	}
}

func costRecord(category string, cost float64, completedAt time.Time) repository.CostRecord {
	return repository.CostRecord{
		TicketID:    testutil.NewID(),
		Category:    category,
		Cost:        cost,
		CompletedAt: completedAt,
	}
}

func TestComputeSpend(t *testing.T) {
	store := &fakeStore{
		records: []repository.CostRecord{
			costRecord("HVAC", 300, testutil.Date(2026, 2, 10)),
			costRecord("hvac", 200, testutil.Date(2026, 7, 1)),
			costRecord("Plumbing", 150, testutil.Date(2026, 3, 5)),
			costRecord("HVAC", 999, testutil.Date(2025, 12, 31)),
		},
	}
	svc := newService(store)
	scope := testutil.TestScope()

	t.Run("filters by category case-insensitively", func(t *testing.T) {
		spent, err := svc.ComputeSpend(context.Background(), scope, nil, "HVAC", 2026)
		require.NoError(t, err)
		assert.Equal(t, 500.0, spent)
	})

	t.Run("total category matches all spend", func(t *testing.T) {
		spent, err := svc.ComputeSpend(context.Background(), scope, nil, "total", 2026)
		require.NoError(t, err)
		assert.Equal(t, 650.0, spent)
	})

	t.Run("empty category matches all spend", func(t *testing.T) {
		spent, err := svc.ComputeSpend(context.Background(), scope, nil, "", 2026)
		require.NoError(t, err)
		assert.Equal(t, 650.0, spent)
	})

	t.Run("excludes other fiscal years", func(t *testing.T) {
		spent, err := svc.ComputeSpend(context.Background(), scope, nil, "HVAC", 2025)
		require.NoError(t, err)
		assert.Equal(t, 999.0, spent)
	})

	t.Run("no matches yields zero", func(t *testing.T) {
		spent, err := svc.ComputeSpend(context.Background(), scope, nil, "Electrical", 2026)
		require.NoError(t, err)
		assert.Equal(t, 0.0, spent)
	})
}

func TestGetBudgetWithSpend(t *testing.T) {
	alloc := allocation("HVAC", 2026, 10000)
	store := &fakeStore{
		allocs: []*repository.Allocation{alloc},
		records: []repository.CostRecord{
			costRecord("HVAC", 9500, testutil.Date(2026, 5, 20)),
		},
	}
	svc := newService(store)

	summary, err := svc.GetBudgetWithSpend(context.Background(), testutil.TestScope(), alloc.ID)
	require.NoError(t, err)

	assert.Equal(t, 9500.0, summary.Spent)
	assert.Equal(t, 500.0, summary.Remaining)
	assert.Equal(t, 95, summary.Utilization)
	assert.Equal(t, service.AlertDanger, summary.AlertLevel)
}

func TestGetBudgetWithSpendNotFound(t *testing.T) {
	svc := newService(&fakeStore{})

	_, err := svc.GetBudgetWithSpend(context.Background(), testutil.TestScope(), testutil.NewID())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestAlertThresholds(t *testing.T) {
	tests := []struct {
		name  string
		spent float64
		want  string
	}{
		{"below warning", 794, service.AlertNone},
		{"rounds up into warning", 795, service.AlertWarning},
		{"warning boundary", 800, service.AlertWarning},
		{"danger boundary", 900, service.AlertDanger},
		{"over boundary", 1000, service.AlertOver},
		{"past over", 1500, service.AlertOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := allocation("HVAC", 2026, 1000)
			store := &fakeStore{
				allocs: []*repository.Allocation{alloc},
				records: []repository.CostRecord{
					costRecord("HVAC", tt.spent, testutil.Date(2026, 6, 15)),
				},
			}

			summary, err := newService(store).GetBudgetWithSpend(context.Background(), testutil.TestScope(), alloc.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary.AlertLevel)
		})
	}
}

func TestZeroAmountAllocation(t *testing.T) {
	alloc := allocation("HVAC", 2026, 0)
	store := &fakeStore{
		allocs: []*repository.Allocation{alloc},
		records: []repository.CostRecord{
			costRecord("HVAC", 250, testutil.Date(2026, 4, 1)),
		},
	}

	summary, err := newService(store).GetBudgetWithSpend(context.Background(), testutil.TestScope(), alloc.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Utilization)
	assert.Equal(t, service.AlertNone, summary.AlertLevel)
	assert.Equal(t, -250.0, summary.Remaining)
}

func TestListWithSpendSortedByCategory(t *testing.T) {
	store := &fakeStore{
		allocs: []*repository.Allocation{
			allocation("Plumbing", 2026, 2000),
			allocation("Electrical", 2026, 3000),
			allocation("HVAC", 2026, 10000),
		},
		records: []repository.CostRecord{
			costRecord("HVAC", 1200, testutil.Date(2026, 1, 15)),
			costRecord("Plumbing", 500, testutil.Date(2026, 2, 3)),
		},
	}

	summaries, err := newService(store).ListWithSpend(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "Electrical", summaries[0].Category)
	assert.Equal(t, "HVAC", summaries[1].Category)
	assert.Equal(t, "Plumbing", summaries[2].Category)

	assert.Equal(t, 0.0, summaries[0].Spent)
	assert.Equal(t, 1200.0, summaries[1].Spent)
	assert.Equal(t, 500.0, summaries[2].Spent)
}

func TestSummarize(t *testing.T) {
	store := &fakeStore{
		allocs: []*repository.Allocation{
			allocation("HVAC", 2026, 1000),
			allocation("Plumbing", 2026, 1000),
			allocation("Electrical", 2026, 1000),
			allocation("Grounds", 2026, 1000),
		},
		records: []repository.CostRecord{
			costRecord("HVAC", 1100, testutil.Date(2026, 3, 1)),
			costRecord("Plumbing", 950, testutil.Date(2026, 3, 1)),
			costRecord("Electrical", 850, testutil.Date(2026, 3, 1)),
			costRecord("Grounds", 100, testutil.Date(2026, 3, 1)),
		},
	}

	summary, err := newService(store).Summarize(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)

	assert.Equal(t, 4000.0, summary.TotalBudget)
	assert.Equal(t, 3000.0, summary.TotalSpent)
	assert.Equal(t, 1000.0, summary.Remaining)
	assert.Equal(t, 75, summary.Utilization)
	assert.Equal(t, service.AlertNone, summary.AlertLevel)
	assert.Equal(t, 1, summary.OverCount)
	assert.Equal(t, 1, summary.DangerCount)
	assert.Equal(t, 1, summary.WarningCount)
}

func TestSummarizeEmptyYear(t *testing.T) {
	summary, err := newService(&fakeStore{}).Summarize(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.TotalBudget)
	assert.Equal(t, 0, summary.Utilization)
	assert.Equal(t, service.AlertNone, summary.AlertLevel)
}

func TestCreateAllocationConflict(t *testing.T) {
	existing := allocation("HVAC", 2026, 5000)
	store := &fakeStore{allocs: []*repository.Allocation{existing}}
	svc := newService(store)

	err := svc.CreateAllocation(context.Background(), testutil.TestScope(), &repository.Allocation{
		Category:   "hvac",
		FiscalYear: 2026,
		Amount:     8000,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Empty(t, store.created)
}

func TestCreateAllocationSameCategoryDifferentLocation(t *testing.T) {
	locA := testutil.StrPtr("building-a")
	locB := testutil.StrPtr("building-b")

	store := &fakeStore{allocs: []*repository.Allocation{
		{ID: testutil.NewID(), LocationID: locA, Category: "HVAC", FiscalYear: 2026, Amount: 5000},
	}}
	svc := newService(store)

	err := svc.CreateAllocation(context.Background(), testutil.TestScope(), &repository.Allocation{
		LocationID: locB,
		Category:   "HVAC",
		FiscalYear: 2026,
		Amount:     5000,
	})

	require.NoError(t, err)
	assert.Len(t, store.created, 1)
}
