package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/incident/events"
	"github.com/siteops/siteops-backend/internal/incident/repository"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// Incident statuses
const (
	StatusReported   = "reported"
	StatusResponding = "responding"
	StatusResolved   = "resolved"
)

// ValidSeverity reports whether s is a known incident severity.
func ValidSeverity(s string) bool {
	switch s {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}

// IncidentService handles emergency incident business logic
type IncidentService struct {
	incidents *repository.IncidentRepository
	publisher *events.IncidentEventPublisher
	logger    *logger.Logger
}

// NewIncidentService creates a new incident service
func NewIncidentService(incidents *repository.IncidentRepository, publisher *events.IncidentEventPublisher, log *logger.Logger) *IncidentService {
	return &IncidentService{
		incidents: incidents,
		publisher: publisher,
		logger:    log,
	}
}

// Report records a new incident and publishes the reported event
func (s *IncidentService) Report(ctx context.Context, scope tenant.Scope, inc *repository.Incident) error {
	if !ValidSeverity(inc.Severity) {
		return errors.BadRequest("severity must be one of low, medium, high, critical")
	}

	inc.Status = StatusReported
	if inc.ReportedAt.IsZero() {
		inc.ReportedAt = time.Now().UTC()
	}

	if err := s.incidents.Create(ctx, scope, inc); err != nil {
		return err
	}

	s.logger.Warn().
		Str("incident_id", inc.ID).
		Str("severity", inc.Severity).
		Msg("incident reported")

	s.publisher.PublishIncidentReported(ctx, scope, inc)

	return nil
}

// GetByID gets an incident by ID
func (s *IncidentService) GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Incident, error) {
	return s.incidents.GetByID(ctx, scope, id)
}

// List lists incidents, optionally filtered by status
func (s *IncidentService) List(ctx context.Context, scope tenant.Scope, status string) ([]*repository.Incident, error) {
	return s.incidents.List(ctx, scope, status)
}

// Respond moves a reported incident to responding
func (s *IncidentService) Respond(ctx context.Context, scope tenant.Scope, id string) (*repository.Incident, error) {
	inc, err := s.incidents.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if inc.Status == StatusResolved {
		return nil, errors.BadRequest("incident is already resolved")
	}

	if err := s.incidents.UpdateStatus(ctx, scope, id, StatusResponding, nil); err != nil {
		return nil, err
	}
	inc.Status = StatusResponding

	return inc, nil
}

// Resolve closes an incident, stamping resolved_at, and publishes the
// resolved event. Resolving twice is rejected.
func (s *IncidentService) Resolve(ctx context.Context, scope tenant.Scope, id string) (*repository.Incident, error) {
	inc, err := s.incidents.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if inc.Status == StatusResolved {
		return nil, errors.BadRequest("incident is already resolved")
	}

	now := time.Now().UTC()
	if err := s.incidents.UpdateStatus(ctx, scope, id, StatusResolved, &now); err != nil {
		return nil, err
	}
	inc.Status = StatusResolved
	inc.ResolvedAt = &now

	s.logger.Info().
		Str("incident_id", id).
		Msg("incident resolved")

	s.publisher.PublishIncidentResolved(ctx, scope, inc)

	return inc, nil
}

// LinkTicket attaches the work order opened to handle the incident
func (s *IncidentService) LinkTicket(ctx context.Context, scope tenant.Scope, id, ticketID string) (*repository.Incident, error) {
	inc, err := s.incidents.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if err := s.incidents.LinkTicket(ctx, scope, id, ticketID); err != nil {
		return nil, err
	}
	inc.TicketID = &ticketID

	return inc, nil
}
