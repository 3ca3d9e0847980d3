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

// Ticket is a work order. Cost and CompletedAt are set together when
// the ticket completes; the budget module reads both.
type Ticket struct {
	ID          string  `db:"id" json:"id"`
	TenantID    string  `db:"tenant_id" json:"-"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description,omitempty"`
	LocationID  *string `db:"location_id" json:"location_id,omitempty"`
	Category    string  `db:"category" json:"category"`
	Priority    string  `db:"priority" json:"priority"`
	Status      string  `db:"status" json:"status"`
	AssigneeID  *string `db:"assignee_id" json:"assignee_id,omitempty"`
	VendorID    *string `db:"vendor_id" json:"vendor_id,omitempty"`
	RequesterID *string `db:"requester_id" json:"requester_id,omitempty"`

	Cost        *float64   `db:"cost" json:"cost,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// TicketFilter narrows List results. Zero values mean no filter.
type TicketFilter struct {
	Status     string
	Priority   string
	Category   string
	LocationID *string
	AssigneeID *string
}

// TicketRepository handles ticket persistence
type TicketRepository struct {
	db *database.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, tenant_id, title, description, location_id, category, priority,
	       status, assignee_id, vendor_id, requester_id, cost, completed_at,
	       created_at, updated_at`

// Create inserts a new ticket
func (r *TicketRepository) Create(ctx context.Context, scope tenant.Scope, t *Ticket) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.TenantID = scope.TenantID()

	query := `
		INSERT INTO tickets (
			id, tenant_id, title, description, location_id, category,
			priority, status, assignee_id, vendor_id, requester_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID, t.TenantID, t.Title, t.Description, t.LocationID, t.Category,
		t.Priority, t.Status, t.AssigneeID, t.VendorID, t.RequesterID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a live ticket by ID
func (r *TicketRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*Ticket, error) {
	var t Ticket

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	err := r.db.GetContext(ctx, &t, query, scope.TenantID(), id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("ticket")
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// List lists live tickets, newest first, with optional filters and
// pagination.
func (r *TicketRepository) List(ctx context.Context, scope tenant.Scope, filter TicketFilter, limit, offset int) ([]*Ticket, int64, error) {
	var tickets []*Ticket

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR priority = $3)
		  AND ($4::text IS NULL OR LOWER(category) = LOWER($4))
		  AND ($5::text IS NULL OR location_id = $5)
		  AND ($6::text IS NULL OR assignee_id = $6)
		ORDER BY created_at DESC
		LIMIT $7 OFFSET $8
	`

	args := []interface{}{
		scope.TenantID(),
		nullable(filter.Status), nullable(filter.Priority), nullable(filter.Category),
		filter.LocationID, filter.AssigneeID,
		limit, offset,
	}

	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, 0, err
	}

	countQuery := `
		SELECT COUNT(*)
		FROM tickets
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR priority = $3)
		  AND ($4::text IS NULL OR LOWER(category) = LOWER($4))
		  AND ($5::text IS NULL OR location_id = $5)
		  AND ($6::text IS NULL OR assignee_id = $6)
	`

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args[:6]...); err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// Update changes a ticket's editable fields. Status, cost and
// completed_at move only through UpdateStatus and Complete.
func (r *TicketRepository) Update(ctx context.Context, scope tenant.Scope, t *Ticket) error {
	query := `
		UPDATE tickets SET
			title = $3, description = $4, location_id = $5, category = $6,
			priority = $7, assignee_id = $8, vendor_id = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		scope.TenantID(), t.ID, t.Title, t.Description, t.LocationID,
		t.Category, t.Priority, t.AssigneeID, t.VendorID,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("ticket")
	}

	return nil
}

// UpdateStatus moves a ticket to a new status
func (r *TicketRepository) UpdateStatus(ctx context.Context, scope tenant.Scope, id, status string) error {
	query := `
		UPDATE tickets SET status = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("ticket")
	}

	return nil
}

// Complete marks a ticket completed with its final cost and stamps
// completed_at.
func (r *TicketRepository) Complete(ctx context.Context, scope tenant.Scope, id string, cost float64, completedAt time.Time) error {
	query := `
		UPDATE tickets SET status = $3, cost = $4, completed_at = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id, "completed", cost, completedAt)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("ticket")
	}

	return nil
}

// SoftDelete tombstones a ticket
func (r *TicketRepository) SoftDelete(ctx context.Context, scope tenant.Scope, id string) error {
	query := `UPDATE tickets SET deleted_at = NOW() WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, scope.TenantID(), id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("ticket")
	}

	return nil
}

// ListForYear lists the year's live tickets oldest first, for exports.
func (r *TicketRepository) ListForYear(ctx context.Context, scope tenant.Scope, year int) ([]*Ticket, error) {
	var tickets []*Ticket

	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	if err := r.db.SelectContext(ctx, &tickets, query, scope.TenantID(), start, end); err != nil {
		return nil, err
	}

	return tickets, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
