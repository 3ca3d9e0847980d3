package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/vendors/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Compliance document types
const (
	DocumentInsurance     = "insurance"
	DocumentLicense       = "license"
	DocumentCertification = "certification"
)

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t string) bool {
	switch t {
	case DocumentInsurance, DocumentLicense, DocumentCertification:
		return true
	}
	return false
}

// VendorService handles vendor and compliance document business logic
type VendorService struct {
	vendors   *repository.VendorRepository
	documents *repository.ComplianceDocumentRepository
	logger    *logger.Logger
}

// NewVendorService creates a new vendor service
func NewVendorService(vendors *repository.VendorRepository, documents *repository.ComplianceDocumentRepository, log *logger.Logger) *VendorService {
	return &VendorService{
		vendors:   vendors,
		documents: documents,
		logger:    log,
	}
}

// Create registers a new vendor
func (s *VendorService) Create(ctx context.Context, scope tenant.Scope, v *repository.Vendor) error {
	if err := s.vendors.Create(ctx, scope, v); err != nil {
		return err
	}

	s.logger.Info().
		Str("vendor_id", v.ID).
		Str("name", v.Name).
		Str("trade", v.Trade).
		Msg("vendor registered")

	return nil
}

// GetByID gets a vendor by ID
func (s *VendorService) GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Vendor, error) {
	return s.vendors.GetByID(ctx, scope, id)
}

// List lists vendors
func (s *VendorService) List(ctx context.Context, scope tenant.Scope, activeOnly bool) ([]*repository.Vendor, error) {
	return s.vendors.List(ctx, scope, activeOnly)
}

// Update changes a vendor's fields
func (s *VendorService) Update(ctx context.Context, scope tenant.Scope, v *repository.Vendor) error {
	return s.vendors.Update(ctx, scope, v)
}

// Delete soft-deletes a vendor
func (s *VendorService) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	return s.vendors.SoftDelete(ctx, scope, id)
}

// AddDocument files a compliance document, for a vendor or at tenant
// level when VendorID is nil.
func (s *VendorService) AddDocument(ctx context.Context, scope tenant.Scope, d *repository.ComplianceDocument) error {
	if !ValidDocumentType(d.Type) {
		return errors.BadRequest("type must be one of insurance, license, certification")
	}
	if d.ExpiresAt.IsZero() {
		return errors.BadRequest("expires_at is required")
	}

	if d.VendorID != nil {
		if _, err := s.vendors.GetByID(ctx, scope, *d.VendorID); err != nil {
			return err
		}
	}

	if err := s.documents.Create(ctx, scope, d); err != nil {
		return err
	}

	s.logger.Info().
		Str("document_id", d.ID).
		Str("type", d.Type).
		Time("expires_at", d.ExpiresAt).
		Msg("compliance document filed")

	return nil
}

// GetDocument gets a compliance document by ID
func (s *VendorService) GetDocument(ctx context.Context, scope tenant.Scope, id string) (*repository.ComplianceDocument, error) {
	return s.documents.GetByID(ctx, scope, id)
}

// ListDocuments lists a vendor's compliance documents
func (s *VendorService) ListDocuments(ctx context.Context, scope tenant.Scope, vendorID string) ([]*repository.ComplianceDocument, error) {
	return s.documents.ListByVendor(ctx, scope, vendorID)
}

// ListExpiring lists documents expiring within the given window from
// now, expired ones included.
func (s *VendorService) ListExpiring(ctx context.Context, scope tenant.Scope, within time.Duration) ([]*repository.ComplianceDocument, error) {
	return s.documents.ListExpiring(ctx, scope, time.Now().UTC().Add(within))
}

// UpdateDocument changes a document's fields
func (s *VendorService) UpdateDocument(ctx context.Context, scope tenant.Scope, d *repository.ComplianceDocument) error {
	if !ValidDocumentType(d.Type) {
		return errors.BadRequest("type must be one of insurance, license, certification")
	}
	return s.documents.Update(ctx, scope, d)
}

// DeleteDocument soft-deletes a document
func (s *VendorService) DeleteDocument(ctx context.Context, scope tenant.Scope, id string) error {
	return s.documents.SoftDelete(ctx, scope, id)
}
