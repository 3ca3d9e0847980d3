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

// ComplianceDocument is a dated certificate a vendor (or the tenant
// itself) must keep current: insurance, license or certification.
type ComplianceDocument struct {
	ID        string  `db:"id" json:"id"`
	TenantID  string  `db:"tenant_id" json:"-"`
	VendorID  *string `db:"vendor_id" json:"vendor_id,omitempty"`
	Type      string  `db:"type" json:"type"`
	Name      string  `db:"name" json:"name"`
	Reference *string `db:"reference" json:"reference,omitempty"`

	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// ComplianceDocumentRepository handles compliance document persistence
type ComplianceDocumentRepository struct {
	db *database.DB
}

// NewComplianceDocumentRepository creates a new compliance document repository
func NewComplianceDocumentRepository(db *database.DB) *ComplianceDocumentRepository {
	return &ComplianceDocumentRepository{db: db}
}

// Create inserts a new document
func (r *ComplianceDocumentRepository) Create(ctx context.Context, scope tenant.Scope, d *ComplianceDocument) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.TenantID = scope.TenantID()

	query := `
		INSERT INTO compliance_documents (id, tenant_id, vendor_id, type, name, reference, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		d.ID, d.TenantID, d.VendorID, d.Type, d.Name, d.Reference, d.ExpiresAt,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live document by ID
func (r *ComplianceDocumentRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*ComplianceDocument, error) {
	var d ComplianceDocument

	query := `
		SELECT id, tenant_id, vendor_id, type, name, reference, expires_at,
		       created_at, updated_at
		FROM compliance_documents
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &d, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("compliance document")
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// ListByVendor lists a vendor's live documents
func (r *ComplianceDocumentRepository) ListByVendor(ctx context.Context, scope tenant.Scope, vendorID string) ([]*ComplianceDocument, error) {
	var docs []*ComplianceDocument

	query := `
		SELECT id, tenant_id, vendor_id, type, name, reference, expires_at,
		       created_at, updated_at
		FROM compliance_documents
		WHERE tenant_id = $1 AND vendor_id = $2 AND deleted_at IS NULL
		ORDER BY expires_at
	`

	if err := r.db.SelectContext(ctx, &docs, query, scope.TenantID(), vendorID); err != nil {
		return nil, err
	}

	return docs, nil
}

// ListExpiring lists live documents expiring on or before the given
// time, soonest first. Already-expired documents are included.
func (r *ComplianceDocumentRepository) ListExpiring(ctx context.Context, scope tenant.Scope, by time.Time) ([]*ComplianceDocument, error) {
	var docs []*ComplianceDocument

	query := `
		SELECT id, tenant_id, vendor_id, type, name, reference, expires_at,
		       created_at, updated_at
		FROM compliance_documents
		WHERE tenant_id = $1 AND expires_at <= $2 AND deleted_at IS NULL
		ORDER BY expires_at
	`

	if err := r.db.SelectContext(ctx, &docs, query, scope.TenantID(), by); err != nil {
		return nil, err
	}

	return docs, nil
}

// Update changes a document's fields
func (r *ComplianceDocumentRepository) Update(ctx context.Context, scope tenant.Scope, d *ComplianceDocument) error {
	query := `
		UPDATE compliance_documents SET
			vendor_id = $3, type = $4, name = $5, reference = $6, expires_at = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		scope.TenantID(), d.ID, d.VendorID, d.Type, d.Name, d.Reference, d.ExpiresAt,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("compliance document")
	}

	return nil
}

// SoftDelete tombstones a document
func (r *ComplianceDocumentRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE compliance_documents SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("compliance document")
	}

	return nil
}
