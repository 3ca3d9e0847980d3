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

// Incident is an emergency event: a burst pipe, an outage, a safety
// hazard. It can link to the ticket opened to deal with it.
type Incident struct {
	ID          string  `db:"id" json:"id"`
	TenantID    string  `db:"tenant_id" json:"-"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description,omitempty"`
	Severity    string  `db:"severity" json:"severity"`
	LocationID  *string `db:"location_id" json:"location_id,omitempty"`
	Status      string  `db:"status" json:"status"`
	TicketID    *string `db:"ticket_id" json:"ticket_id,omitempty"`

	ReportedAt time.Time  `db:"reported_at" json:"reported_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// IncidentRepository handles incident persistence
type IncidentRepository struct {
	db *database.DB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db *database.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts a new incident
func (r *IncidentRepository) Create(ctx context.Context, scope tenant.Scope, inc *Incident) error {
	if inc.ID == "" {
		inc.ID = uuid.New().String()
	}
	inc.TenantID = scope.TenantID()

	query := `
		INSERT INTO incidents (id, tenant_id, title, description, severity, location_id, status, ticket_id, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		inc.ID, inc.TenantID, inc.Title, inc.Description, inc.Severity,
		inc.LocationID, inc.Status, inc.TicketID, inc.ReportedAt,
	).Scan(&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live incident by ID
func (r *IncidentRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*Incident, error) {
	var inc Incident

	query := `
		SELECT id, tenant_id, title, description, severity, location_id, status, ticket_id,
		       reported_at, resolved_at, created_at, updated_at
		FROM incidents
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &inc, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("incident")
	}
	if err != nil {
		return nil, err
	}

	return &inc, nil
}

// List lists live incidents newest first, optionally by status
func (r *IncidentRepository) List(ctx context.Context, scope tenant.Scope, status string) ([]*Incident, error) {
	var incidents []*Incident

	query := `
		SELECT id, tenant_id, title, description, severity, location_id, status, ticket_id,
		       reported_at, resolved_at, created_at, updated_at
		FROM incidents
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY reported_at DESC
	`

	var statusArg *string
	if status != "" {
		statusArg = &status
	}

	if err := r.db.SelectContext(ctx, &incidents, query, scope.TenantID(), statusArg); err != nil {
		return nil, err
	}

	return incidents, nil
}

// UpdateStatus moves an incident to a new status, stamping resolved_at
// when resolving.
func (r *IncidentRepository) UpdateStatus(ctx context.Context, scope tenant.Scope, id, status string, resolvedAt *time.Time) error {
	query := `
		UPDATE incidents SET status = $3, resolved_at = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id, status, resolvedAt)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("incident")
	}

	return nil
}

// LinkTicket attaches the ticket opened to handle the incident
func (r *IncidentRepository) LinkTicket(ctx context.Context, scope tenant.Scope, id, ticketID string) error {
	query := `
		UPDATE incidents SET ticket_id = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id, ticketID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("incident")
	}

	return nil
}
