package events

import (
	"context"

	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// BudgetEventPublisher publishes budget-related events
type BudgetEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewBudgetEventPublisher creates a new budget event publisher
func NewBudgetEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*BudgetEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeFacilitiesEvents, "siteops-server", log)
	if err != nil {
		return nil, err
	}

	return &BudgetEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishBudgetAlert publishes an alert for an allocation at warning
// level or above.
func (p *BudgetEventPublisher) PublishBudgetAlert(ctx context.Context, scope tenant.Scope, sum *service.BudgetSummary) {
	data := messaging.BudgetAlertRaisedEvent{
		AllocationID: sum.ID,
		TenantID:     scope.TenantID(),
		Category:     sum.Category,
		LocationID:   sum.LocationID,
		FiscalYear:   sum.FiscalYear,
		Spent:        sum.Spent,
		Amount:       sum.Amount,
		Utilization:  sum.Utilization,
		AlertLevel:   sum.AlertLevel,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBudgetAlertRaised, data); err != nil {
		p.logger.Error().Err(err).Str("allocation_id", sum.ID).Msg("failed to publish budget alert event")
	}
}
