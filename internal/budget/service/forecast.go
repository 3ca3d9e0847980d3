package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Forecast confidence tiers, by how many months of data back the run
// rate.
const (
	ConfidenceLow    = "low"    // fewer than 3 elapsed months
	ConfidenceMedium = "medium" // 3 to 5
	ConfidenceHigh   = "high"   // 6 or more
)

// Forecast projects an allocation's year-end position from its run
// rate so far.
type Forecast struct {
	AllocationID    string  `json:"allocation_id"`
	FiscalYear      int     `json:"fiscal_year"`
	Amount          float64 `json:"amount"`
	Spent           float64 `json:"spent"`
	ElapsedMonths   int     `json:"elapsed_months"`
	MonthlyAverage  float64 `json:"monthly_average"`
	ProjectedSpend  float64 `json:"projected_spend"`
	ProjectedOver   bool    `json:"projected_over"`
	ProjectedExcess float64 `json:"projected_excess"`
	Confidence      string  `json:"confidence"`
}

// ElapsedMonths counts the months of the fiscal year that inform the
// run rate as of now: the current month number inside the running
// year, all 12 for a finished year, and 0 for a year not yet begun.
func ElapsedMonths(fiscalYear int, now time.Time) int {
	switch {
	case now.Year() > fiscalYear:
		return 12
	case now.Year() < fiscalYear:
		return 0
	default:
		return int(now.Month())
	}
}

// NewForecast derives the projection for one allocation from its spend
// to date. With no elapsed months or no spend the projection is flat
// zero rather than undefined.
func NewForecast(alloc *repository.Allocation, spent float64, now time.Time) *Forecast {
	elapsed := ElapsedMonths(alloc.FiscalYear, now)

	var avg float64
	if elapsed > 0 {
		avg = spent / float64(elapsed)
	}
	projected := avg * 12

	var excess float64
	if projected > alloc.Amount {
		excess = projected - alloc.Amount
	}

	return &Forecast{
		AllocationID:    alloc.ID,
		FiscalYear:      alloc.FiscalYear,
		Amount:          alloc.Amount,
		Spent:           spent,
		ElapsedMonths:   elapsed,
		MonthlyAverage:  avg,
		ProjectedSpend:  projected,
		ProjectedOver:   projected > alloc.Amount,
		ProjectedExcess: excess,
		Confidence:      confidenceFor(elapsed),
	}
}

// ForecastAllocation projects where an allocation will land at year
// end given its spend so far this year.
func (s *BudgetService) ForecastAllocation(ctx context.Context, scope tenant.Scope, id string) (*Forecast, error) {
	alloc, err := s.allocations.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	spent, err := s.ComputeSpend(ctx, scope, alloc.LocationID, alloc.Category, alloc.FiscalYear)
	if err != nil {
		return nil, err
	}

	return NewForecast(alloc, spent, time.Now().UTC()), nil
}

func confidenceFor(elapsed int) string {
	switch {
	case elapsed >= 6:
		return ConfidenceHigh
	case elapsed >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
