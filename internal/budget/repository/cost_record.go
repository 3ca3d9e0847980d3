package repository

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/pkg/database"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// CostRecord is a completed, costed work order as seen by the budget
// module. Only tickets with both a cost and a completion timestamp
// appear here; the record is immutable from this module's perspective.
type CostRecord struct {
	TicketID    string    `db:"id"`
	LocationID  *string   `db:"location_id"`
	Category    string    `db:"category"`
	Cost        float64   `db:"cost"`
	CompletedAt time.Time `db:"completed_at"`
}

// CostRecordRepository reads completed ticket costs
type CostRecordRepository struct {
	db *database.DB
}

// NewCostRecordRepository creates a new cost record repository
func NewCostRecordRepository(db *database.DB) *CostRecordRepository {
	return &CostRecordRepository{db: db}
}

// ListCompleted returns the tenant's cost records completed within
// [start, end), optionally restricted to one location. An empty result
// is a valid outcome, not an error.
func (r *CostRecordRepository) ListCompleted(ctx context.Context, scope tenant.Scope, start, end time.Time, locationID *string) ([]CostRecord, error) {
	var records []CostRecord

	query := `
		SELECT id, location_id, category, cost, completed_at
		FROM tickets
		WHERE tenant_id = $1
		  AND cost IS NOT NULL
		  AND completed_at IS NOT NULL
		  AND completed_at >= $2
		  AND completed_at < $3
		  AND ($4::text IS NULL OR location_id = $4)
		  AND deleted_at IS NULL
		ORDER BY completed_at
	`

	err := r.db.SelectContext(ctx, &records, query, scope.TenantID(), start, end, locationID)
	if err != nil {
		return nil, err
	}

	return records, nil
}
