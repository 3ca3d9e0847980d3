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

// PMSchedule is a recurring preventive maintenance task for an asset.
// NextDueAt is always derived from the frequency when the schedule is
// created or completed.
type PMSchedule struct {
	ID        string `db:"id" json:"id"`
	TenantID  string `db:"tenant_id" json:"-"`
	AssetID   string `db:"asset_id" json:"asset_id"`
	Title     string `db:"title" json:"title"`
	Frequency string `db:"frequency" json:"frequency"`

	LastCompletedAt *time.Time `db:"last_completed_at" json:"last_completed_at,omitempty"`
	NextDueAt       time.Time  `db:"next_due_at" json:"next_due_at"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// PMScheduleRepository handles preventive maintenance schedule
// persistence.
type PMScheduleRepository struct {
	db *database.DB
}

// NewPMScheduleRepository creates a new PM schedule repository
func NewPMScheduleRepository(db *database.DB) *PMScheduleRepository {
	return &PMScheduleRepository{db: db}
}

// Create inserts a new schedule
func (r *PMScheduleRepository) Create(ctx context.Context, scope tenant.Scope, s *PMSchedule) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.TenantID = scope.TenantID()

	query := `
		INSERT INTO pm_schedules (id, tenant_id, asset_id, title, frequency, next_due_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.TenantID, s.AssetID, s.Title, s.Frequency, s.NextDueAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live schedule by ID
func (r *PMScheduleRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*PMSchedule, error) {
	var s PMSchedule

	query := `
		SELECT id, tenant_id, asset_id, title, frequency, last_completed_at, next_due_at,
		       created_at, updated_at
		FROM pm_schedules
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &s, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("maintenance schedule")
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// ListByAsset lists an asset's live schedules
func (r *PMScheduleRepository) ListByAsset(ctx context.Context, scope tenant.Scope, assetID string) ([]*PMSchedule, error) {
	var schedules []*PMSchedule

	query := `
		SELECT id, tenant_id, asset_id, title, frequency, last_completed_at, next_due_at,
		       created_at, updated_at
		FROM pm_schedules
		WHERE tenant_id = $1 AND asset_id = $2 AND deleted_at IS NULL
		ORDER BY next_due_at
	`

	if err := r.db.SelectContext(ctx, &schedules, query, scope.TenantID(), assetID); err != nil {
		return nil, err
	}

	return schedules, nil
}

// ListDue lists all schedules due on or before the given time, most
// overdue first.
func (r *PMScheduleRepository) ListDue(ctx context.Context, scope tenant.Scope, by time.Time) ([]*PMSchedule, error) {
	var schedules []*PMSchedule

	query := `
		SELECT id, tenant_id, asset_id, title, frequency, last_completed_at, next_due_at,
		       created_at, updated_at
		FROM pm_schedules
		WHERE tenant_id = $1 AND next_due_at <= $2 AND deleted_at IS NULL
		ORDER BY next_due_at
	`

	if err := r.db.SelectContext(ctx, &schedules, query, scope.TenantID(), by); err != nil {
		return nil, err
	}

	return schedules, nil
}

// MarkCompleted stamps a completion and advances the due date
func (r *PMScheduleRepository) MarkCompleted(ctx context.Context, scope tenant.Scope, id string, completedAt, nextDueAt time.Time) error {
	query := `
		UPDATE pm_schedules SET last_completed_at = $3, next_due_at = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id, completedAt, nextDueAt)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("maintenance schedule")
	}

	return nil
}

// SoftDelete tombstones a schedule
func (r *PMScheduleRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE pm_schedules SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("maintenance schedule")
	}

	return nil
}
