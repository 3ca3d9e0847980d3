package events

import (
	"context"

	"github.com/siteops/siteops-backend/internal/ticket/repository"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// TicketEventPublisher publishes ticket lifecycle events
type TicketEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewTicketEventPublisher creates a new ticket event publisher
func NewTicketEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*TicketEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeFacilitiesEvents, "siteops-server", log)
	if err != nil {
		return nil, err
	}

	return &TicketEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishTicketCreated publishes a ticket created event
func (p *TicketEventPublisher) PublishTicketCreated(ctx context.Context, scope tenant.Scope, t *repository.Ticket) {
	data := messaging.TicketCreatedEvent{
		TicketID:   t.ID,
		TenantID:   scope.TenantID(),
		Title:      t.Title,
		Category:   t.Category,
		Priority:   t.Priority,
		LocationID: t.LocationID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTicketCreated, data); err != nil {
		p.logger.Error().Err(err).Str("ticket_id", t.ID).Msg("failed to publish ticket created event")
	}
}

// PublishStatusChanged publishes a ticket status changed event
func (p *TicketEventPublisher) PublishStatusChanged(ctx context.Context, scope tenant.Scope, t *repository.Ticket, from string) {
	data := messaging.TicketStatusChangedEvent{
		TicketID:   t.ID,
		TenantID:   scope.TenantID(),
		FromStatus: from,
		ToStatus:   t.Status,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTicketStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Str("ticket_id", t.ID).Msg("failed to publish ticket status changed event")
	}
}

// PublishTicketCompleted publishes a ticket completed event. The
// budget module consumes this to recheck allocation thresholds.
func (p *TicketEventPublisher) PublishTicketCompleted(ctx context.Context, scope tenant.Scope, t *repository.Ticket) {
	if t.Cost == nil || t.CompletedAt == nil {
		p.logger.Error().Str("ticket_id", t.ID).Msg("refusing to publish completed event without cost and completion time")
		return
	}

	data := messaging.TicketCompletedEvent{
		TicketID:    t.ID,
		TenantID:    scope.TenantID(),
		Category:    t.Category,
		LocationID:  t.LocationID,
		Cost:        *t.Cost,
		CompletedAt: *t.CompletedAt,
	}

	if err := p.publisher.Publish(ctx, messaging.EventTicketCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("ticket_id", t.ID).Msg("failed to publish ticket completed event")
	}
}
