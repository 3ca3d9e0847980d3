package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
	"golang.org/x/sync/errgroup"
)

// Alert levels, a total function of utilization.
const (
	AlertNone    = "none"    // utilization 0-79
	AlertWarning = "warning" // 80-89
	AlertDanger  = "danger"  // 90-99
	AlertOver    = "over"    // >= 100
)

// BudgetSummary enriches an allocation with spend recomputed from
// completed tickets. Never persisted: recomputing on every read keeps
// the summary from drifting against actual spend.
type BudgetSummary struct {
	*repository.Allocation
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	Utilization int     `json:"utilization"`
	AlertLevel  string  `json:"alert_level"`
}

// YearSummary aggregates a whole fiscal year for a tenant.
type YearSummary struct {
	FiscalYear   int     `json:"fiscal_year"`
	TotalBudget  float64 `json:"total_budget"`
	TotalSpent   float64 `json:"total_spent"`
	Remaining    float64 `json:"remaining"`
	Utilization  int     `json:"utilization"`
	AlertLevel   string  `json:"alert_level"`
	OverCount    int     `json:"over_count"`
	DangerCount  int     `json:"danger_count"`
	WarningCount int     `json:"warning_count"`
}

// BudgetService computes spend, utilization, trends and forecasts for a
// tenant's budget allocations. All operations are stateless reads over
// data fetched fresh per call.
type BudgetService struct {
	allocations AllocationStore
	costs       CostSource
	logger      *logger.Logger
}

// NewBudgetService creates a new budget service
func NewBudgetService(allocations AllocationStore, costs CostSource, log *logger.Logger) *BudgetService {
	return &BudgetService{
		allocations: allocations,
		costs:       costs,
		logger:      log,
	}
}

// CreateAllocation creates an allocation after rejecting duplicates for
// the same (location, category, fiscal year) tuple. The pre-check gives
// a descriptive Conflict before any write; the storage unique index
// closes the remaining race.
func (s *BudgetService) CreateAllocation(ctx context.Context, scope tenant.Scope, alloc *repository.Allocation) error {
	existing, err := s.allocations.GetByKey(ctx, scope, alloc.LocationID, alloc.Category, alloc.FiscalYear)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.Conflict("a budget allocation for this location, category and fiscal year already exists")
	}

	if err := s.allocations.Create(ctx, scope, alloc); err != nil {
		return err
	}

	s.logger.Info().
		Str("allocation_id", alloc.ID).
		Str("category", alloc.Category).
		Int("fiscal_year", alloc.FiscalYear).
		Float64("amount", alloc.Amount).
		Msg("budget allocation created")

	return nil
}

// UpdateAllocation updates an allocation's own fields. The computed
// spend path is untouched by updates.
func (s *BudgetService) UpdateAllocation(ctx context.Context, scope tenant.Scope, alloc *repository.Allocation) error {
	if err := s.allocations.Update(ctx, scope, alloc); err != nil {
		return err
	}

	s.logger.Info().
		Str("allocation_id", alloc.ID).
		Msg("budget allocation updated")

	return nil
}

// DeleteAllocation soft-deletes an allocation
func (s *BudgetService) DeleteAllocation(ctx context.Context, scope tenant.Scope, id string) error {
	if err := s.allocations.SoftDelete(ctx, scope, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("allocation_id", id).
		Msg("budget allocation deleted")

	return nil
}

// GetAllocation fetches an allocation without spend
func (s *BudgetService) GetAllocation(ctx context.Context, scope tenant.Scope, id string) (*repository.Allocation, error) {
	return s.allocations.GetByID(ctx, scope, id)
}

// ComputeSpend sums the tenant's completed ticket costs for a fiscal
// year, optionally restricted to a location and/or category. The
// category "total" (case-insensitive) and the empty string mean all
// categories. No matches yields 0, never an error.
func (s *BudgetService) ComputeSpend(ctx context.Context, scope tenant.Scope, locationID *string, category string, fiscalYear int) (float64, error) {
	records, err := s.costs.ListCompleted(ctx, scope, yearStart(fiscalYear), yearStart(fiscalYear+1), locationID)
	if err != nil {
		return 0, err
	}

	return sumMatching(records, category), nil
}

// GetBudgetWithSpend fetches an allocation and derives its summary.
// A missing allocation is NotFound, which is distinct from an existing
// allocation with zero spend.
func (s *BudgetService) GetBudgetWithSpend(ctx context.Context, scope tenant.Scope, id string) (*BudgetSummary, error) {
	alloc, err := s.allocations.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	spent, err := s.ComputeSpend(ctx, scope, alloc.LocationID, alloc.Category, alloc.FiscalYear)
	if err != nil {
		return nil, err
	}

	return newSummary(alloc, spent), nil
}

// ListWithSpend returns every live allocation for the year enriched
// with its summary. The per-allocation spend computations are
// independent read-only aggregations and run concurrently; output is
// sorted by category for stable presentation.
func (s *BudgetService) ListWithSpend(ctx context.Context, scope tenant.Scope, fiscalYear int) ([]*BudgetSummary, error) {
	allocs, err := s.allocations.ListByYear(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}

	summaries := make([]*BudgetSummary, len(allocs))

	g, gctx := errgroup.WithContext(ctx)
	for i, alloc := range allocs {
		i, alloc := i, alloc
		g.Go(func() error {
			spent, err := s.ComputeSpend(gctx, scope, alloc.LocationID, alloc.Category, alloc.FiscalYear)
			if err != nil {
				return err
			}
			summaries[i] = newSummary(alloc, spent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return strings.ToLower(summaries[i].Category) < strings.ToLower(summaries[j].Category)
	})

	return summaries, nil
}

// Summarize folds ListWithSpend into tenant-wide totals plus a count of
// allocations per alert tier. No queries beyond what ListWithSpend runs.
func (s *BudgetService) Summarize(ctx context.Context, scope tenant.Scope, fiscalYear int) (*YearSummary, error) {
	summaries, err := s.ListWithSpend(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}

	out := &YearSummary{FiscalYear: fiscalYear}
	for _, sum := range summaries {
		out.TotalBudget += sum.Amount
		out.TotalSpent += sum.Spent

		switch sum.AlertLevel {
		case AlertOver:
			out.OverCount++
		case AlertDanger:
			out.DangerCount++
		case AlertWarning:
			out.WarningCount++
		}
	}

	out.Remaining = out.TotalBudget - out.TotalSpent
	out.Utilization = utilizationPct(out.TotalSpent, out.TotalBudget)
	out.AlertLevel = alertFor(out.Utilization)

	return out, nil
}

func newSummary(alloc *repository.Allocation, spent float64) *BudgetSummary {
	util := utilizationPct(spent, alloc.Amount)
	return &BudgetSummary{
		Allocation:  alloc,
		Spent:       spent,
		Remaining:   alloc.Amount - spent,
		Utilization: util,
		AlertLevel:  alertFor(util),
	}
}

// utilizationPct is spend as a rounded percentage of the allocation,
// 0 when the allocation amount is 0.
func utilizationPct(spent, amount float64) int {
	if amount == 0 {
		return 0
	}
	return int(math.Round(100 * spent / amount))
}

// alertFor classifies a utilization percentage.
func alertFor(utilization int) string {
	switch {
	case utilization >= 100:
		return AlertOver
	case utilization >= 90:
		return AlertDanger
	case utilization >= 80:
		return AlertWarning
	default:
		return AlertNone
	}
}

// sumMatching sums the cost of records matching the category filter.
// An empty category or the "total" sentinel matches everything.
func sumMatching(records []repository.CostRecord, category string) float64 {
	filter := category != "" && !strings.EqualFold(category, repository.CategoryTotal)

	var total float64
	for _, rec := range records {
		if filter && !strings.EqualFold(rec.Category, category) {
			continue
		}
		total += rec.Cost
	}
	return total
}

// yearStart is midnight UTC on January 1 of the given year. Fiscal
// years are calendar years, [Jan 1, Jan 1 of the next year).
func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
