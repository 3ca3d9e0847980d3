package alerts

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/pkg/database"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Scheduler runs the scanner periodically across all active tenants.
type Scheduler struct {
	scanner  *Scanner
	db       *database.DB
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(scanner *Scanner, db *database.DB, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		db:       db,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scheduler in a background goroutine. An initial
// scan cycle runs immediately, then one per interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		s.runCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()

	tenantIDs, err := s.db.ActiveTenantIDs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query active tenants")
		return
	}

	for _, tenantID := range tenantIDs {
		scope, err := tenant.NewScope(tenantID)
		if err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("skipping tenant with invalid id")
			continue
		}

		if err := s.scanner.ScanTenant(ctx, scope); err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("scan failed for tenant")
		}
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("tenant_count", len(tenantIDs)).
		Msg("alert scan cycle completed")
}
