package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/testutil"
)

func TestSpendByCategory(t *testing.T) {
	store := &fakeStore{
		allocs: []*repository.Allocation{
			allocation("HVAC", 2026, 10000),
			allocation("Plumbing", 2026, 4000),
		},
		records: []repository.CostRecord{
			costRecord("HVAC", 2000, testutil.Date(2026, 2, 1)),
			costRecord("hvac", 500, testutil.Date(2026, 6, 1)),
			costRecord("", 300, testutil.Date(2026, 4, 1)),
			costRecord("Electrical", 700, testutil.Date(2026, 5, 1)),
		},
	}

	rows, err := newService(store).SpendByCategory(context.Background(), testutil.TestScope(), 2026, nil)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byName := make(map[string]service.CategorySpend)
	for _, row := range rows {
		byName[row.Category] = row
	}

	hvac := byName["HVAC"]
	assert.Equal(t, 2500.0, hvac.Spent)
	assert.Equal(t, 10000.0, hvac.Budget)
	assert.Equal(t, 25, hvac.Utilization)

	plumbing := byName["Plumbing"]
	assert.Equal(t, 0.0, plumbing.Spent)
	assert.Equal(t, 4000.0, plumbing.Budget)

	electrical := byName["Electrical"]
	assert.Equal(t, 700.0, electrical.Spent)
	assert.Equal(t, 0.0, electrical.Budget)
	assert.Equal(t, 0, electrical.Utilization)

	uncategorized := byName[service.UncategorizedBucket]
	assert.Equal(t, 300.0, uncategorized.Spent)
	assert.Equal(t, 0.0, uncategorized.Budget)

	// Sorted alphabetically.
	assert.Equal(t, "Electrical", rows[0].Category)
	assert.Equal(t, "HVAC", rows[1].Category)
	assert.Equal(t, "Plumbing", rows[2].Category)
	assert.Equal(t, service.UncategorizedBucket, rows[3].Category)
}

func TestSpendByCategoryIgnoresTotalAllocation(t *testing.T) {
	store := &fakeStore{
		allocs: []*repository.Allocation{
			allocation("total", 2026, 50000),
			allocation("HVAC", 2026, 10000),
		},
		records: []repository.CostRecord{
			costRecord("HVAC", 1000, testutil.Date(2026, 3, 1)),
		},
	}

	rows, err := newService(store).SpendByCategory(context.Background(), testutil.TestScope(), 2026, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HVAC", rows[0].Category)
	assert.Equal(t, 10000.0, rows[0].Budget)
}

func TestSpendByCategoryLocationFilter(t *testing.T) {
	locA := testutil.StrPtr("building-a")
	locB := testutil.StrPtr("building-b")

	store := &fakeStore{
		allocs: []*repository.Allocation{
			{ID: testutil.NewID(), LocationID: locA, Category: "HVAC", FiscalYear: 2026, Amount: 10000},
			{ID: testutil.NewID(), LocationID: locB, Category: "HVAC", FiscalYear: 2026, Amount: 4000},
			{ID: testutil.NewID(), Category: "HVAC", FiscalYear: 2026, Amount: 2000},
		},
		records: []repository.CostRecord{
			{TicketID: testutil.NewID(), LocationID: locA, Category: "HVAC", Cost: 3000, CompletedAt: testutil.Date(2026, 2, 1)},
			{TicketID: testutil.NewID(), LocationID: locB, Category: "HVAC", Cost: 999, CompletedAt: testutil.Date(2026, 3, 1)},
		},
	}

	rows, err := newService(store).SpendByCategory(context.Background(), testutil.TestScope(), 2026, locA)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Only building-a's tickets and allocations count.
	assert.Equal(t, "HVAC", rows[0].Category)
	assert.Equal(t, 3000.0, rows[0].Spent)
	assert.Equal(t, 10000.0, rows[0].Budget)
	assert.Equal(t, 30, rows[0].Utilization)
}

func TestUtilizationByLocation(t *testing.T) {
	locA := testutil.StrPtr("building-a")
	locB := testutil.StrPtr("building-b")

	store := &fakeStore{
		allocs: []*repository.Allocation{
			{ID: testutil.NewID(), LocationID: locA, Category: "total", FiscalYear: 2026, Amount: 10000},
			{ID: testutil.NewID(), LocationID: locB, Category: "total", FiscalYear: 2026, Amount: 5000},
		},
		records: []repository.CostRecord{
			{TicketID: testutil.NewID(), LocationID: locA, Category: "HVAC", Cost: 9500, CompletedAt: testutil.Date(2026, 5, 1)},
			{TicketID: testutil.NewID(), LocationID: locB, Category: "HVAC", Cost: 1000, CompletedAt: testutil.Date(2026, 5, 1)},
			{TicketID: testutil.NewID(), Category: "Grounds", Cost: 400, CompletedAt: testutil.Date(2026, 5, 1)},
		},
	}

	rows, err := newService(store).UtilizationByLocation(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// nil location sorts first on the empty key.
	assert.Nil(t, rows[0].LocationID)
	assert.Equal(t, 400.0, rows[0].Spent)
	assert.Equal(t, 0.0, rows[0].Budget)
	assert.Equal(t, 0, rows[0].Utilization)

	require.NotNil(t, rows[1].LocationID)
	assert.Equal(t, "building-a", *rows[1].LocationID)
	assert.Equal(t, 95, rows[1].Utilization)
	assert.Equal(t, service.AlertDanger, rows[1].AlertLevel)

	require.NotNil(t, rows[2].LocationID)
	assert.Equal(t, "building-b", *rows[2].LocationID)
	assert.Equal(t, 20, rows[2].Utilization)
	assert.Equal(t, service.AlertNone, rows[2].AlertLevel)
}

func TestMonthlySpendTrend(t *testing.T) {
	store := &fakeStore{
		records: []repository.CostRecord{
			costRecord("HVAC", 100, testutil.Date(2026, 1, 10)),
			costRecord("HVAC", 200, testutil.Date(2026, 1, 25)),
			costRecord("Plumbing", 50, testutil.Date(2026, 3, 5)),
			costRecord("HVAC", 400, testutil.Date(2026, 12, 31)),
		},
	}

	trend, err := newService(store).MonthlySpendTrend(context.Background(), testutil.TestScope(), 2026, nil, "")
	require.NoError(t, err)
	require.Len(t, trend, 12)

	assert.Equal(t, 1, trend[0].Month)
	assert.Equal(t, 300.0, trend[0].Spent)
	assert.Equal(t, 300.0, trend[0].Cumulative)

	assert.Equal(t, 0.0, trend[1].Spent)
	assert.Equal(t, 300.0, trend[1].Cumulative)

	assert.Equal(t, 50.0, trend[2].Spent)
	assert.Equal(t, 350.0, trend[2].Cumulative)

	assert.Equal(t, 12, trend[11].Month)
	assert.Equal(t, 400.0, trend[11].Spent)
	assert.Equal(t, 750.0, trend[11].Cumulative)
}

func TestMonthlySpendTrendCategoryFilter(t *testing.T) {
	store := &fakeStore{
		records: []repository.CostRecord{
			costRecord("HVAC", 100, testutil.Date(2026, 1, 10)),
			costRecord("Plumbing", 999, testutil.Date(2026, 1, 15)),
		},
	}

	trend, err := newService(store).MonthlySpendTrend(context.Background(), testutil.TestScope(), 2026, nil, "hvac")
	require.NoError(t, err)
	assert.Equal(t, 100.0, trend[0].Spent)
}

func TestMonthlySpendTrendEmptyYear(t *testing.T) {
	trend, err := newService(&fakeStore{}).MonthlySpendTrend(context.Background(), testutil.TestScope(), 2026, nil, "")
	require.NoError(t, err)
	require.Len(t, trend, 12)

	for i, month := range trend {
		assert.Equal(t, i+1, month.Month)
		assert.Equal(t, 0.0, month.Spent)
		assert.Equal(t, 0.0, month.Cumulative)
	}
}

func TestYearOverYear(t *testing.T) {
	store := &fakeStore{
		records: []repository.CostRecord{
			costRecord("HVAC", 1000, testutil.Date(2025, 6, 1)),
			costRecord("HVAC", 1500, testutil.Date(2026, 6, 1)),
			costRecord("Plumbing", 200, testutil.Date(2025, 4, 1)),
			costRecord("Electrical", 300, testutil.Date(2026, 8, 1)),
		},
	}

	cmp, err := newService(store).YearOverYear(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)

	assert.Equal(t, 2026, cmp.CurrentYear)
	assert.Equal(t, 2025, cmp.PreviousYear)
	assert.Equal(t, 1800.0, cmp.CurrentTotal)
	assert.Equal(t, 1200.0, cmp.PreviousTotal)
	assert.Equal(t, 50, cmp.ChangePct)

	require.Len(t, cmp.Categories, 3)

	byName := make(map[string]service.CategoryComparison)
	for _, c := range cmp.Categories {
		byName[c.Category] = c
	}

	hvac := byName["HVAC"]
	assert.Equal(t, 1000.0, hvac.PreviousSpent)
	assert.Equal(t, 1500.0, hvac.CurrentSpent)
	assert.Equal(t, 50, hvac.ChangePct)

	// New category grows from a zero baseline.
	electrical := byName["Electrical"]
	assert.Equal(t, 0.0, electrical.PreviousSpent)
	assert.Equal(t, 100, electrical.ChangePct)

	// Category that disappeared.
	plumbing := byName["Plumbing"]
	assert.Equal(t, 200.0, plumbing.PreviousSpent)
	assert.Equal(t, 0.0, plumbing.CurrentSpent)
	assert.Equal(t, -100, plumbing.ChangePct)
}

func TestYearOverYearBothEmpty(t *testing.T) {
	cmp, err := newService(&fakeStore{}).YearOverYear(context.Background(), testutil.TestScope(), 2026)
	require.NoError(t, err)

	assert.Equal(t, 0, cmp.ChangePct)
	assert.Empty(t, cmp.Categories)
}
