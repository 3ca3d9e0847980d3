package consumers

import (
	"context"
	"strings"

	"github.com/siteops/siteops-backend/internal/budget/events"
	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// TicketEventConsumer watches ticket completions and raises budget
// alerts when the attributed spend pushes an allocation past a
// threshold.
type TicketEventConsumer struct {
	consumer      *messaging.Consumer
	budgetService *service.BudgetService
	publisher     *events.BudgetEventPublisher
	logger        *logger.Logger
}

// NewTicketEventConsumer creates a new ticket event consumer
func NewTicketEventConsumer(
	rmq *messaging.RabbitMQ,
	budgetService *service.BudgetService,
	publisher *events.BudgetEventPublisher,
	log *logger.Logger,
) (*TicketEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "siteops-server.budget.ticket-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeFacilitiesEvents, messaging.EventTicketCompleted); err != nil {
		return nil, err
	}

	c := &TicketEventConsumer{
		consumer:      consumer,
		budgetService: budgetService,
		publisher:     publisher,
		logger:        log,
	}

	consumer.RegisterHandler(messaging.EventTicketCompleted, c.handleTicketCompleted)

	return c, nil
}

// Start starts consuming messages
func (c *TicketEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *TicketEventConsumer) handleTicketCompleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.TicketCompletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("ticket_id", data.TicketID).
		Str("category", data.Category).
		Float64("cost", data.Cost).
		Msg("received ticket completed event")

	if data.Cost == 0 {
		return nil
	}

	scope, err := tenant.NewScope(data.TenantID)
	if err != nil {
		c.logger.Error().Err(err).Str("ticket_id", data.TicketID).Msg("ticket completed event has no tenant, dropping")
		return nil
	}

	summaries, err := c.budgetService.ListWithSpend(ctx, scope, data.CompletedAt.Year())
	if err != nil {
		return err
	}

	for _, sum := range summaries {
		if sum.AlertLevel == service.AlertNone {
			continue
		}
		if !affectedBy(sum, &data) {
			continue
		}

		c.logger.Warn().
			Str("allocation_id", sum.ID).
			Str("category", sum.Category).
			Int("utilization", sum.Utilization).
			Str("alert_level", sum.AlertLevel).
			Msg("budget allocation over threshold")

		c.publisher.PublishBudgetAlert(ctx, scope, sum)
	}

	return nil
}

// affectedBy reports whether the completed ticket's cost counts toward
// the allocation. Overall allocations match any category; allocations
// without a location match tickets anywhere.
func affectedBy(sum *service.BudgetSummary, data *messaging.TicketCompletedEvent) bool {
	if !strings.EqualFold(sum.Category, repository.CategoryTotal) &&
		!strings.EqualFold(sum.Category, data.Category) {
		return false
	}
	if sum.LocationID != nil {
		if data.LocationID == nil || *sum.LocationID != *data.LocationID {
			return false
		}
	}
	return true
}
