package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/ticket/repository"
	"github.com/siteops/siteops-backend/pkg/actor"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// TicketStore is the persistence surface the ticket service needs.
// Satisfied by repository.TicketRepository.
type TicketStore interface {
	Create(ctx context.Context, scope tenant.Scope, t *repository.Ticket) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Ticket, error)
	List(ctx context.Context, scope tenant.Scope, filter repository.TicketFilter, limit, offset int) ([]*repository.Ticket, int64, error)
	Update(ctx context.Context, scope tenant.Scope, t *repository.Ticket) error
	UpdateStatus(ctx context.Context, scope tenant.Scope, id, status string) error
	Complete(ctx context.Context, scope tenant.Scope, id string, cost float64, completedAt time.Time) error
	SoftDelete(ctx context.Context, scope tenant.Scope, id string) error
	ListForYear(ctx context.Context, scope tenant.Scope, year int) ([]*repository.Ticket, error)
}

// EventSink receives ticket lifecycle events. Satisfied by
// events.TicketEventPublisher.
type EventSink interface {
	PublishTicketCreated(ctx context.Context, scope tenant.Scope, t *repository.Ticket)
	PublishStatusChanged(ctx context.Context, scope tenant.Scope, t *repository.Ticket, from string)
	PublishTicketCompleted(ctx context.Context, scope tenant.Scope, t *repository.Ticket)
}

// TicketService handles work order business logic
type TicketService struct {
	tickets TicketStore
	events  EventSink
	logger  *logger.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(tickets TicketStore, events EventSink, log *logger.Logger) *TicketService {
	return &TicketService{
		tickets: tickets,
		events:  events,
		logger:  log,
	}
}

// Create opens a new ticket in status open
func (s *TicketService) Create(ctx context.Context, scope tenant.Scope, t *repository.Ticket) error {
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if !ValidPriority(t.Priority) {
		return errors.BadRequest("priority must be one of low, medium, high, critical")
	}
	t.Status = StatusOpen

	if act := actor.FromContext(ctx); act != nil && t.RequesterID == nil {
		id := act.ID
		t.RequesterID = &id
	}

	if err := s.tickets.Create(ctx, scope, t); err != nil {
		return err
	}

	s.logger.Info().
		Str("ticket_id", t.ID).
		Str("category", t.Category).
		Str("priority", t.Priority).
		Msg("ticket created")

	s.events.PublishTicketCreated(ctx, scope, t)

	return nil
}

// GetByID gets a ticket by ID
func (s *TicketService) GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Ticket, error) {
	return s.tickets.GetByID(ctx, scope, id)
}

// List lists tickets with filters and pagination
func (s *TicketService) List(ctx context.Context, scope tenant.Scope, filter repository.TicketFilter, limit, offset int) ([]*repository.Ticket, int64, error) {
	return s.tickets.List(ctx, scope, filter, limit, offset)
}

// Update changes a ticket's editable fields
func (s *TicketService) Update(ctx context.Context, scope tenant.Scope, t *repository.Ticket) error {
	if !ValidPriority(t.Priority) {
		return errors.BadRequest("priority must be one of low, medium, high, critical")
	}
	return s.tickets.Update(ctx, scope, t)
}

// Delete soft-deletes a ticket
func (s *TicketService) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	return s.tickets.SoftDelete(ctx, scope, id)
}

// PerformAction runs one workflow action on a ticket as the acting
// user's role allows. Completing requires a cost; every transition
// publishes a status changed event and completion additionally feeds
// the budget pipeline.
func (s *TicketService) PerformAction(ctx context.Context, scope tenant.Scope, id, action string, cost *float64, assigneeID *string) (*repository.Ticket, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		return nil, errors.Forbidden("acting user required")
	}

	t, err := s.tickets.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	next, err := ApplyAction(t.Status, act.Role, action)
	if err != nil {
		return nil, err
	}

	from := t.Status

	switch action {
	case ActionComplete:
		if cost == nil {
			return nil, errors.BadRequest("completing a ticket requires its final cost")
		}
		if *cost < 0 {
			return nil, errors.BadRequest("cost must not be negative")
		}

		completedAt := time.Now().UTC()
		if err := s.tickets.Complete(ctx, scope, id, *cost, completedAt); err != nil {
			return nil, err
		}
		t.Status = next
		t.Cost = cost
		t.CompletedAt = &completedAt

	case ActionAssign:
		if assigneeID == nil {
			return nil, errors.BadRequest("assigning a ticket requires an assignee")
		}
		t.AssigneeID = assigneeID
		if err := s.tickets.Update(ctx, scope, t); err != nil {
			return nil, err
		}
		if err := s.tickets.UpdateStatus(ctx, scope, id, next); err != nil {
			return nil, err
		}
		t.Status = next

	default:
		if err := s.tickets.UpdateStatus(ctx, scope, id, next); err != nil {
			return nil, err
		}
		t.Status = next
	}

	s.logger.Info().
		Str("ticket_id", id).
		Str("action", action).
		Str("from", from).
		Str("to", t.Status).
		Str("actor", act.ID).
		Msg("ticket transitioned")

	s.events.PublishStatusChanged(ctx, scope, t, from)
	if action == ActionComplete {
		s.events.PublishTicketCompleted(ctx, scope, t)
	}

	return t, nil
}
