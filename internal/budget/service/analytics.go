package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// UncategorizedBucket labels spend from tickets that carry no category.
const UncategorizedBucket = "Uncategorized"

// CategorySpend is one row of the spend-by-category breakdown.
type CategorySpend struct {
	Category    string  `json:"category"`
	Spent       float64 `json:"spent"`
	Budget      float64 `json:"budget"`
	Utilization int     `json:"utilization"`
}

// LocationUtilization is one row of the utilization-by-location view.
type LocationUtilization struct {
	LocationID  *string `json:"location_id"`
	Budget      float64 `json:"budget"`
	Spent       float64 `json:"spent"`
	Utilization int     `json:"utilization"`
	AlertLevel  string  `json:"alert_level"`
}

// MonthSpend is one month of the trend, with the running total.
type MonthSpend struct {
	Month      int     `json:"month"`
	Spent      float64 `json:"spent"`
	Cumulative float64 `json:"cumulative"`
}

// CategoryComparison compares one category across two fiscal years.
type CategoryComparison struct {
	Category      string  `json:"category"`
	PreviousSpent float64 `json:"previous_spent"`
	CurrentSpent  float64 `json:"current_spent"`
	ChangePct     int     `json:"change_pct"`
}

// YearComparison is the year-over-year report.
type YearComparison struct {
	CurrentYear   int                  `json:"current_year"`
	PreviousYear  int                  `json:"previous_year"`
	CurrentTotal  float64              `json:"current_total"`
	PreviousTotal float64              `json:"previous_total"`
	ChangePct     int                  `json:"change_pct"`
	Categories    []CategoryComparison `json:"categories"`
}

// SpendByCategory breaks the year's spend down per ticket category,
// optionally restricted to one location. Ticket categories are matched
// case-insensitively; tickets without a category land in the
// Uncategorized bucket. Each bucket's budget is the sum of same-named
// allocation amounts, zero when none exists, in which case utilization
// is also zero.
func (s *BudgetService) SpendByCategory(ctx context.Context, scope tenant.Scope, fiscalYear int, locationID *string) ([]CategorySpend, error) {
	records, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear), yearStart(fiscalYear+1), locationID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.allocations.ListByYear(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}

	// Display names keep the casing of the first occurrence.
	spent := make(map[string]float64)
	names := make(map[string]string)
	for _, rec := range records {
		key, name := categoryKey(rec.Category)
		spent[key] += rec.Cost
		if _, ok := names[key]; !ok {
			names[key] = name
		}
	}

	budgets := make(map[string]float64)
	for _, alloc := range allocs {
		if strings.EqualFold(alloc.Category, repository.CategoryTotal) {
			continue
		}
		if locationID != nil && (alloc.LocationID == nil || *alloc.LocationID != *locationID) {
			continue
		}
		key := strings.ToLower(alloc.Category)
		budgets[key] += alloc.Amount
		if _, ok := names[key]; !ok {
			names[key] = alloc.Category
		}
	}

	out := make([]CategorySpend, 0, len(names))
	for key, name := range names {
		row := CategorySpend{
			Category: name,
			Spent:    spent[key],
			Budget:   budgets[key],
		}
		row.Utilization = utilizationPct(row.Spent, row.Budget)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Category) < strings.ToLower(out[j].Category)
	})

	return out, nil
}

// UtilizationByLocation groups the year's spend by ticket location and
// sets each location's budget to the sum of its allocations. Tickets
// and allocations without a location share a single nil-keyed row.
func (s *BudgetService) UtilizationByLocation(ctx context.Context, scope tenant.Scope, fiscalYear int) ([]LocationUtilization, error) {
	records, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear), yearStart(fiscalYear+1), nil)
	if err != nil {
		return nil, err
	}
	allocs, err := s.allocations.ListByYear(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}

	spent := make(map[string]float64)
	budgets := make(map[string]float64)
	ids := make(map[string]*string)

	for _, rec := range records {
		key := locationKey(rec.LocationID)
		spent[key] += rec.Cost
		ids[key] = rec.LocationID
	}
	for _, alloc := range allocs {
		key := locationKey(alloc.LocationID)
		budgets[key] += alloc.Amount
		if _, ok := ids[key]; !ok {
			ids[key] = alloc.LocationID
		}
	}

	out := make([]LocationUtilization, 0, len(ids))
	for key, id := range ids {
		row := LocationUtilization{
			LocationID: id,
			Budget:     budgets[key],
			Spent:      spent[key],
		}
		row.Utilization = utilizationPct(row.Spent, row.Budget)
		row.AlertLevel = alertFor(row.Utilization)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		return locationKey(out[i].LocationID) < locationKey(out[j].LocationID)
	})

	return out, nil
}

// MonthlySpendTrend buckets the year's spend per calendar month.
// Always returns exactly 12 entries, January through December, with a
// running cumulative so charts need no client-side summing. Future
// months of the current year are simply zero.
func (s *BudgetService) MonthlySpendTrend(ctx context.Context, scope tenant.Scope, fiscalYear int, locationID *string, category string) ([]MonthSpend, error) {
	records, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear), yearStart(fiscalYear+1), locationID)
	if err != nil {
		return nil, err
	}

	filter := category != "" && !strings.EqualFold(category, repository.CategoryTotal)

	monthly := make([]float64, 12)
	for _, rec := range records {
		if filter && !strings.EqualFold(rec.Category, category) {
			continue
		}
		monthly[rec.CompletedAt.In(time.UTC).Month()-1] += rec.Cost
	}

	out := make([]MonthSpend, 12)
	var running float64
	for i := 0; i < 12; i++ {
		running += monthly[i]
		out[i] = MonthSpend{
			Month:      i + 1,
			Spent:      monthly[i],
			Cumulative: running,
		}
	}

	return out, nil
}

// YearOverYear compares spend per category between a fiscal year and
// the one before it. Categories appearing in either year are included.
func (s *BudgetService) YearOverYear(ctx context.Context, scope tenant.Scope, fiscalYear int) (*YearComparison, error) {
	current, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear), yearStart(fiscalYear+1), nil)
	if err != nil {
		return nil, err
	}
	previous, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear-1), yearStart(fiscalYear), nil)
	if err != nil {
		return nil, err
	}

	curSpent := make(map[string]float64)
	prevSpent := make(map[string]float64)
	names := make(map[string]string)

	for _, rec := range current {
		key, name := categoryKey(rec.Category)
		curSpent[key] += rec.Cost
		if _, ok := names[key]; !ok {
			names[key] = name
		}
	}
	for _, rec := range previous {
		key, name := categoryKey(rec.Category)
		prevSpent[key] += rec.Cost
		if _, ok := names[key]; !ok {
			names[key] = name
		}
	}

	out := &YearComparison{
		CurrentYear:  fiscalYear,
		PreviousYear: fiscalYear - 1,
		Categories:   make([]CategoryComparison, 0, len(names)),
	}

	for key, name := range names {
		cur, prev := curSpent[key], prevSpent[key]
		out.CurrentTotal += cur
		out.PreviousTotal += prev
		out.Categories = append(out.Categories, CategoryComparison{
			Category:      name,
			PreviousSpent: prev,
			CurrentSpent:  cur,
			ChangePct:     changePct(prev, cur),
		})
	}

	out.ChangePct = changePct(out.PreviousTotal, out.CurrentTotal)

	sort.Slice(out.Categories, func(i, j int) bool {
		return strings.ToLower(out.Categories[i].Category) < strings.ToLower(out.Categories[j].Category)
	})

	return out, nil
}

// changePct is the rounded percentage change from prev to cur. Growth
// from a zero baseline reports 100, and no spend in either year is 0.
func changePct(prev, cur float64) int {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 100
	}
	return int(math.Round(100 * (cur - prev) / prev))
}

// categoryKey folds a category for grouping and returns the display
// name, substituting the Uncategorized bucket for empty categories.
func categoryKey(category string) (key, name string) {
	if strings.TrimSpace(category) == "" {
		return strings.ToLower(UncategorizedBucket), UncategorizedBucket
	}
	return strings.ToLower(category), category
}

func locationKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
