package service

import (
	"context"

	"github.com/siteops/siteops-backend/internal/asset/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Asset statuses
const (
	StatusOperational  = "operational"
	StatusNeedsRepair  = "needs_repair"
	StatusOutOfService = "out_of_service"
	StatusRetired      = "retired"
)

// AssetService handles asset business logic
type AssetService struct {
	assets *repository.AssetRepository
	logger *logger.Logger
}

// NewAssetService creates a new asset service
func NewAssetService(assets *repository.AssetRepository, log *logger.Logger) *AssetService {
	return &AssetService{
		assets: assets,
		logger: log,
	}
}

// ValidStatus reports whether s is a known asset status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOperational, StatusNeedsRepair, StatusOutOfService, StatusRetired:
		return true
	}
	return false
}

// Create registers a new asset
func (s *AssetService) Create(ctx context.Context, scope tenant.Scope, a *repository.Asset) error {
	if a.Status != "" && !ValidStatus(a.Status) {
		return errors.BadRequest("status must be one of operational, needs_repair, out_of_service, retired")
	}

	if err := s.assets.Create(ctx, scope, a); err != nil {
		return err
	}

	s.logger.Info().
		Str("asset_id", a.ID).
		Str("name", a.Name).
		Msg("asset registered")

	return nil
}

// GetByID gets an asset by ID
func (s *AssetService) GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Asset, error) {
	return s.assets.GetByID(ctx, scope, id)
}

// List lists assets with optional filters
func (s *AssetService) List(ctx context.Context, scope tenant.Scope, locationID *string, status string) ([]*repository.Asset, error) {
	return s.assets.List(ctx, scope, locationID, status)
}

// Update changes an asset's fields
func (s *AssetService) Update(ctx context.Context, scope tenant.Scope, a *repository.Asset) error {
	if !ValidStatus(a.Status) {
		return errors.BadRequest("status must be one of operational, needs_repair, out_of_service, retired")
	}
	return s.assets.Update(ctx, scope, a)
}

// Delete soft-deletes an asset
func (s *AssetService) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	return s.assets.SoftDelete(ctx, scope, id)
}
