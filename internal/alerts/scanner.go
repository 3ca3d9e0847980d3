// Package alerts runs the background scans that turn due maintenance
// and expiring compliance documents into events.
package alerts

import (
	"context"
	"fmt"
	"time"

	assetsvc "github.com/siteops/siteops-backend/internal/asset/service"
	vendorsvc "github.com/siteops/siteops-backend/internal/vendors/service"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Scanner checks one tenant for due maintenance schedules and expiring
// compliance documents and publishes an event per finding. Consumers
// dedup on their side; the scanner itself is stateless.
type Scanner struct {
	pm        *assetsvc.PMService
	vendors   *vendorsvc.VendorService
	publisher *messaging.Publisher
	lookahead time.Duration
	logger    *logger.Logger
}

// NewScanner creates a new scanner
func NewScanner(
	pm *assetsvc.PMService,
	vendors *vendorsvc.VendorService,
	rmq *messaging.RabbitMQ,
	lookahead time.Duration,
	log *logger.Logger,
) (*Scanner, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeFacilitiesEvents, "siteops-server", log)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		pm:        pm,
		vendors:   vendors,
		publisher: publisher,
		lookahead: lookahead,
		logger:    log,
	}, nil
}

// ScanTenant runs all scans for one tenant. Logs errors but keeps
// scanning; the last error is returned for the scheduler's bookkeeping.
func (s *Scanner) ScanTenant(ctx context.Context, scope tenant.Scope) error {
	scans := []struct {
		name string
		fn   func(context.Context, tenant.Scope) error
	}{
		{"maintenance_due", s.scanMaintenanceDue},
		{"compliance_expiring", s.scanComplianceExpiring},
	}

	var lastErr error
	for _, scan := range scans {
		if err := scan.fn(ctx, scope); err != nil {
			s.logger.Error().Err(err).
				Str("scan", scan.name).
				Str("tenant_id", scope.TenantID()).
				Msg("scan failed")
			lastErr = err
		}
	}

	return lastErr
}

func (s *Scanner) scanMaintenanceDue(ctx context.Context, scope tenant.Scope) error {
	due, err := s.pm.ListDue(ctx, scope, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("scanMaintenanceDue: %w", err)
	}

	for _, sched := range due {
		data := messaging.MaintenanceDueEvent{
			ScheduleID: sched.ID,
			TenantID:   scope.TenantID(),
			AssetID:    sched.AssetID,
			Name:       sched.Title,
			DueAt:      sched.NextDueAt,
		}

		if err := s.publisher.Publish(ctx, messaging.EventMaintenanceDue, data); err != nil {
			s.logger.Error().Err(err).Str("schedule_id", sched.ID).Msg("failed to publish maintenance due event")
		}
	}

	if len(due) > 0 {
		s.logger.Info().
			Int("count", len(due)).
			Str("tenant_id", scope.TenantID()).
			Msg("maintenance schedules due")
	}

	return nil
}

func (s *Scanner) scanComplianceExpiring(ctx context.Context, scope tenant.Scope) error {
	docs, err := s.vendors.ListExpiring(ctx, scope, s.lookahead)
	if err != nil {
		return fmt.Errorf("scanComplianceExpiring: %w", err)
	}

	for _, doc := range docs {
		data := messaging.ComplianceExpiringEvent{
			DocumentID: doc.ID,
			TenantID:   scope.TenantID(),
			VendorID:   doc.VendorID,
			Type:       doc.Type,
			ExpiresAt:  doc.ExpiresAt,
		}

		if err := s.publisher.Publish(ctx, messaging.EventComplianceExpiring, data); err != nil {
			s.logger.Error().Err(err).Str("document_id", doc.ID).Msg("failed to publish compliance expiring event")
		}
	}

	if len(docs) > 0 {
		s.logger.Info().
			Int("count", len(docs)).
			Str("tenant_id", scope.TenantID()).
			Msg("compliance documents expiring")
	}

	return nil
}
