package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/siteops/siteops-backend/pkg/database"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// CategoryTotal is the sentinel category meaning "all categories".
// Comparison against it is case-insensitive.
const CategoryTotal = "total"

// Allocation is a budgeted amount for a (location, category, fiscal year)
// tuple. LocationID nil means tenant-wide; Category "total" means all
// categories. A fiscal year is the calendar year.
type Allocation struct {
	ID         string  `db:"id" json:"id"`
	TenantID   string  `db:"tenant_id" json:"-"`
	LocationID *string `db:"location_id" json:"location_id,omitempty"`
	Category   string  `db:"category" json:"category"`
	FiscalYear int     `db:"fiscal_year" json:"fiscal_year"`
	Amount     float64 `db:"amount" json:"amount"`
	Notes      *string `db:"notes" json:"notes,omitempty"`

	// SpentAmount is a legacy column carried for schema compatibility.
	// Actual spend is always recomputed from completed tickets; this
	// value is never read by any computation.
	SpentAmount float64 `db:"spent_amount" json:"-"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// AllocationRepository handles budget allocation persistence
type AllocationRepository struct {
	db *database.DB
}

// NewAllocationRepository creates a new allocation repository
func NewAllocationRepository(db *database.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Create inserts a new allocation. The partial unique index on
// (tenant_id, location_id, lower(category), fiscal_year) backs up the
// service-level duplicate pre-check; a violation maps to Conflict.
func (r *AllocationRepository) Create(ctx context.Context, scope tenant.Scope, alloc *Allocation) error {
	if alloc.ID == "" {
		alloc.ID = uuid.New().String()
	}
	if alloc.Category == "" {
		alloc.Category = CategoryTotal
	}
	alloc.TenantID = scope.TenantID()

	query := `
		INSERT INTO budget_allocations (
			id, tenant_id, location_id, category, fiscal_year, amount, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		alloc.ID, alloc.TenantID, alloc.LocationID, alloc.Category,
		alloc.FiscalYear, alloc.Amount, alloc.Notes,
	).Scan(&alloc.CreatedAt, &alloc.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live allocation by ID
func (r *AllocationRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*Allocation, error) {
	var alloc Allocation

	query := `
		SELECT id, tenant_id, location_id, category, fiscal_year, amount, notes,
		       spent_amount, created_at, updated_at
		FROM budget_allocations
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &alloc, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("budget allocation")
	}
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// GetByKey looks up the allocation for a (location, category, year)
// tuple. Returns nil without error when no allocation exists, so the
// service can use it as a duplicate pre-check.
func (r *AllocationRepository) GetByKey(ctx context.Context, scope tenant.Scope, locationID *string, category string, fiscalYear int) (*Allocation, error) {
	if category == "" {
		category = CategoryTotal
	}

	var alloc Allocation

	query := `
		SELECT id, tenant_id, location_id, category, fiscal_year, amount, notes,
		       spent_amount, created_at, updated_at
		FROM budget_allocations
		WHERE tenant_id = $1
		  AND LOWER(category) = LOWER($2)
		  AND fiscal_year = $3
		  AND (location_id = $4 OR (location_id IS NULL AND $4 IS NULL))
		  AND deleted_at IS NULL
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &alloc, query, scope.TenantID(), category, fiscalYear, locationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &alloc, nil
}

// ListByYear lists all live allocations for a fiscal year
func (r *AllocationRepository) ListByYear(ctx context.Context, scope tenant.Scope, fiscalYear int) ([]*Allocation, error) {
	var allocs []*Allocation

	query := `
		SELECT id, tenant_id, location_id, category, fiscal_year, amount, notes,
		       spent_amount, created_at, updated_at
		FROM budget_allocations
		WHERE tenant_id = $1 AND fiscal_year = $2 AND deleted_at IS NULL
		ORDER BY category, location_id NULLS FIRST
	`

	err := r.db.SelectContext(ctx, &allocs, query, scope.TenantID(), fiscalYear)
	if err != nil {
		return nil, err
	}

	return allocs, nil
}

// ListByLocation lists all live allocations for a location across years
func (r *AllocationRepository) ListByLocation(ctx context.Context, scope tenant.Scope, locationID string) ([]*Allocation, error) {
	var allocs []*Allocation

	query := `
		SELECT id, tenant_id, location_id, category, fiscal_year, amount, notes,
		       spent_amount, created_at, updated_at
		FROM budget_allocations
		WHERE tenant_id = $1 AND location_id = $2 AND deleted_at IS NULL
		ORDER BY fiscal_year DESC, category
	`

	err := r.db.SelectContext(ctx, &allocs, query, scope.TenantID(), locationID)
	if err != nil {
		return nil, err
	}

	return allocs, nil
}

// Update changes an allocation's amount, category, location and notes.
// The legacy spent_amount column is deliberately not writable here.
func (r *AllocationRepository) Update(ctx context.Context, scope tenant.Scope, alloc *Allocation) error {
	query := `
		UPDATE budget_allocations SET
			location_id = $3, category = $4, amount = $5, notes = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		scope.TenantID(), alloc.ID, alloc.LocationID, alloc.Category, alloc.Amount, alloc.Notes,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("budget allocation")
	}

	return nil
}

// SoftDelete tombstones an allocation
func (r *AllocationRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE budget_allocations SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("budget allocation")
	}

	return nil
}
