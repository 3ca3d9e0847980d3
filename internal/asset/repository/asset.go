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

// Asset is a physical piece of equipment or infrastructure under
// management.
type Asset struct {
	ID           string  `db:"id" json:"id"`
	TenantID     string  `db:"tenant_id" json:"-"`
	Name         string  `db:"name" json:"name"`
	LocationID   *string `db:"location_id" json:"location_id,omitempty"`
	Category     string  `db:"category" json:"category"`
	SerialNumber *string `db:"serial_number" json:"serial_number,omitempty"`
	Status       string  `db:"status" json:"status"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// AssetRepository handles asset persistence
type AssetRepository struct {
	db *database.DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *database.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Create inserts a new asset. Serial numbers are unique per tenant;
// a violation maps to Conflict.
func (r *AssetRepository) Create(ctx context.Context, scope tenant.Scope, a *Asset) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = "operational"
	}
	a.TenantID = scope.TenantID()

	query := `
		INSERT INTO assets (id, tenant_id, name, location_id, category, serial_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.TenantID, a.Name, a.LocationID, a.Category, a.SerialNumber, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live asset by ID
func (r *AssetRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*Asset, error) {
	var a Asset

	query := `
		SELECT id, tenant_id, name, location_id, category, serial_number, status,
		       created_at, updated_at
		FROM assets
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &a, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("asset")
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// List lists live assets, optionally filtered by location and status
func (r *AssetRepository) List(ctx context.Context, scope tenant.Scope, locationID *string, status string) ([]*Asset, error) {
	var assets []*Asset

	query := `
		SELECT id, tenant_id, name, location_id, category, serial_number, status,
		       created_at, updated_at
		FROM assets
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR location_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY name
	`

	var statusArg *string
	if status != "" {
		statusArg = &status
	}

	if err := r.db.SelectContext(ctx, &assets, query, scope.TenantID(), locationID, statusArg); err != nil {
		return nil, err
	}

	return assets, nil
}

// Update changes an asset's fields
func (r *AssetRepository) Update(ctx context.Context, scope tenant.Scope, a *Asset) error {
	query := `
		UPDATE assets SET
			name = $3, location_id = $4, category = $5, serial_number = $6,
			status = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		scope.TenantID(), a.ID, a.Name, a.LocationID, a.Category, a.SerialNumber, a.Status,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("asset")
	}

	return nil
}

// SoftDelete tombstones an asset
func (r *AssetRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE assets SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("asset")
	}

	return nil
}
