package events

import (
	"context"

	"github.com/siteops/siteops-backend/internal/incident/repository"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/messaging"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// IncidentEventPublisher publishes incident events
type IncidentEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewIncidentEventPublisher creates a new incident event publisher
func NewIncidentEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*IncidentEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeFacilitiesEvents, "siteops-server", log)
	if err != nil {
		return nil, err
	}

	return &IncidentEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishIncidentReported publishes an incident reported event
func (p *IncidentEventPublisher) PublishIncidentReported(ctx context.Context, scope tenant.Scope, inc *repository.Incident) {
	data := messaging.IncidentReportedEvent{
		IncidentID: inc.ID,
		TenantID:   scope.TenantID(),
		Title:      inc.Title,
		Severity:   inc.Severity,
		LocationID: inc.LocationID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventIncidentReported, data); err != nil {
		p.logger.Error().Err(err).Str("incident_id", inc.ID).Msg("failed to publish incident reported event")
	}
}

// PublishIncidentResolved publishes an incident resolved event
func (p *IncidentEventPublisher) PublishIncidentResolved(ctx context.Context, scope tenant.Scope, inc *repository.Incident) {
	data := messaging.IncidentResolvedEvent{
		IncidentID: inc.ID,
		TenantID:   scope.TenantID(),
	}
	if inc.ResolvedAt != nil {
		data.ResolvedAt = *inc.ResolvedAt
	}

	if err := p.publisher.Publish(ctx, messaging.EventIncidentResolved, data); err != nil {
		p.logger.Error().Err(err).Str("incident_id", inc.ID).Msg("failed to publish incident resolved event")
	}
}
