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

// Vendor is an external contractor or service provider.
type Vendor struct {
	ID           string   `db:"id" json:"id"`
	TenantID     string   `db:"tenant_id" json:"-"`
	Name         string   `db:"name" json:"name"`
	Trade        string   `db:"trade" json:"trade"`
	ContactEmail *string  `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone *string  `db:"contact_phone" json:"contact_phone,omitempty"`
	HourlyRate   *float64 `db:"hourly_rate" json:"hourly_rate,omitempty"`
	IsActive     bool     `db:"is_active" json:"is_active"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// VendorRepository handles vendor persistence
type VendorRepository struct {
	db *database.DB
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *database.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// Create inserts a new vendor
func (r *VendorRepository) Create(ctx context.Context, scope tenant.Scope, v *Vendor) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.TenantID = scope.TenantID()

	query := `
		INSERT INTO vendors (id, tenant_id, name, trade, contact_email, contact_phone, hourly_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		v.ID, v.TenantID, v.Name, v.Trade, v.ContactEmail, v.ContactPhone, v.HourlyRate, v.IsActive,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*Vendor, error) {
	var v Vendor

	query := `
		SELECT id, tenant_id, name, trade, contact_email, contact_phone, hourly_rate, is_active,
		       created_at, updated_at
		FROM vendors
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &v, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("vendor")
	}
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// List lists live vendors, optionally only active ones
func (r *VendorRepository) List(ctx context.Context, scope tenant.Scope, activeOnly bool) ([]*Vendor, error) {
	var vendors []*Vendor

	query := `
		SELECT id, tenant_id, name, trade, contact_email, contact_phone, hourly_rate, is_active,
		       created_at, updated_at
		FROM vendors
		WHERE tenant_id = $1 AND deleted_at IS NULL AND (NOT $2 OR is_active)
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &vendors, query, scope.TenantID(), activeOnly); err != nil {
		return nil, err
	}

	return vendors, nil
}

// Update changes a vendor's fields
func (r *VendorRepository) Update(ctx context.Context, scope tenant.Scope, v *Vendor) error {
	query := `
		UPDATE vendors SET
			name = $3, trade = $4, contact_email = $5, contact_phone = $6,
			hourly_rate = $7, is_active = $8, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		scope.TenantID(), v.ID, v.Name, v.Trade, v.ContactEmail, v.ContactPhone, v.HourlyRate, v.IsActive,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("vendor")
	}

	return nil
}

// SoftDelete tombstones a vendor
func (r *VendorRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE vendors SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("vendor")
	}

	return nil
}
