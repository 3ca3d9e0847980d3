package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/asset/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Maintenance frequencies
const (
	FrequencyWeekly     = "weekly"
	FrequencyMonthly    = "monthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiannual = "semiannual"
	FrequencyAnnual     = "annual"
)

// NextDueAfter advances a due date by one frequency interval. Unknown
// frequencies return the zero time; callers validate first.
func NextDueAfter(frequency string, from time.Time) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencySemiannual:
		return from.AddDate(0, 6, 0)
	case FrequencyAnnual:
		return from.AddDate(1, 0, 0)
	}
	return time.Time{}
}

// ValidFrequency reports whether f is a known maintenance frequency.
func ValidFrequency(f string) bool {
	return !NextDueAfter(f, time.Unix(0, 0)).IsZero()
}

// PMService handles preventive maintenance schedules
type PMService struct {
	schedules *repository.PMScheduleRepository
	assets    *repository.AssetRepository
	logger    *logger.Logger
}

// NewPMService creates a new PM service
func NewPMService(schedules *repository.PMScheduleRepository, assets *repository.AssetRepository, log *logger.Logger) *PMService {
	return &PMService{
		schedules: schedules,
		assets:    assets,
		logger:    log,
	}
}

// Create adds a recurring schedule to an asset. The first due date
// defaults to one interval from now when not given.
func (s *PMService) Create(ctx context.Context, scope tenant.Scope, sched *repository.PMSchedule) error {
	if !ValidFrequency(sched.Frequency) {
		return errors.BadRequest("frequency must be one of weekly, monthly, quarterly, semiannual, annual")
	}

	if _, err := s.assets.GetByID(ctx, scope, sched.AssetID); err != nil {
		return err
	}

	if sched.NextDueAt.IsZero() {
		sched.NextDueAt = NextDueAfter(sched.Frequency, time.Now().UTC())
	}

	if err := s.schedules.Create(ctx, scope, sched); err != nil {
		return err
	}

	s.logger.Info().
		Str("schedule_id", sched.ID).
		Str("asset_id", sched.AssetID).
		Str("frequency", sched.Frequency).
		Time("next_due_at", sched.NextDueAt).
		Msg("maintenance schedule created")

	return nil
}

// GetByID gets a schedule by ID
func (s *PMService) GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.PMSchedule, error) {
	return s.schedules.GetByID(ctx, scope, id)
}

// ListByAsset lists an asset's schedules
func (s *PMService) ListByAsset(ctx context.Context, scope tenant.Scope, assetID string) ([]*repository.PMSchedule, error) {
	return s.schedules.ListByAsset(ctx, scope, assetID)
}

// ListDue lists schedules due on or before the given time
func (s *PMService) ListDue(ctx context.Context, scope tenant.Scope, by time.Time) ([]*repository.PMSchedule, error) {
	return s.schedules.ListDue(ctx, scope, by)
}

// Complete records a completed maintenance round and advances the due
// date one interval from the completion time, not from the old due
// date, so overdue schedules do not come due again immediately.
func (s *PMService) Complete(ctx context.Context, scope tenant.Scope, id string) (*repository.PMSchedule, error) {
	sched, err := s.schedules.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	next := NextDueAfter(sched.Frequency, now)

	if err := s.schedules.MarkCompleted(ctx, scope, id, now, next); err != nil {
		return nil, err
	}

	sched.LastCompletedAt = &now
	sched.NextDueAt = next

	s.logger.Info().
		Str("schedule_id", id).
		Time("next_due_at", next).
		Msg("maintenance schedule completed")

	return sched, nil
}

// Delete soft-deletes a schedule
func (s *PMService) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	return s.schedules.SoftDelete(ctx, scope, id)
}
