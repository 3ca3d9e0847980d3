package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Ticket events
	EventTicketCreated       = "ticket.created"
	EventTicketStatusChanged = "ticket.status.changed"
	EventTicketCompleted     = "ticket.completed"

	// Budget events
	EventBudgetAlertRaised = "budget.alert.raised"

	// Preventive maintenance events
	EventMaintenanceDue = "maintenance.schedule.due"

	// Compliance events
	EventComplianceExpiring = "compliance.document.expiring"

	// Incident events
	EventIncidentReported = "incident.reported"
	EventIncidentResolved = "incident.resolved"
)

// Exchange names
const (
	ExchangeFacilitiesEvents = "facilities.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Ticket events

// TicketCreatedEvent is published when a work order is opened
type TicketCreatedEvent struct {
	TicketID   string  `json:"ticket_id"`
	TenantID   string  `json:"tenant_id"`
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Priority   string  `json:"priority"`
	LocationID *string `json:"location_id,omitempty"`
}

// TicketStatusChangedEvent is published on every workflow transition
type TicketStatusChangedEvent struct {
	TicketID   string `json:"ticket_id"`
	TenantID   string `json:"tenant_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id,omitempty"`
}

// TicketCompletedEvent is published when a ticket is completed with a
// realized cost. The budget consumer reacts to this to re-check
// allocation utilization for the tenant.
type TicketCompletedEvent struct {
	TicketID    string    `json:"ticket_id"`
	TenantID    string    `json:"tenant_id"`
	Category    string    `json:"category"`
	LocationID  *string   `json:"location_id,omitempty"`
	Cost        float64   `json:"cost"`
	CompletedAt time.Time `json:"completed_at"`
}

// Budget events

// BudgetAlertRaisedEvent is published when an allocation's utilization
// crosses into warning, danger or over territory.
type BudgetAlertRaisedEvent struct {
	AllocationID string  `json:"allocation_id"`
	TenantID     string  `json:"tenant_id"`
	Category     string  `json:"category"`
	LocationID   *string `json:"location_id,omitempty"`
	FiscalYear   int     `json:"fiscal_year"`
	Spent        float64 `json:"spent"`
	Amount       float64 `json:"amount"`
	Utilization  int     `json:"utilization"`
	AlertLevel   string  `json:"alert_level"`
}

// Maintenance events

// MaintenanceDueEvent is published by the scanner for schedules that are due
type MaintenanceDueEvent struct {
	ScheduleID string    `json:"schedule_id"`
	TenantID   string    `json:"tenant_id"`
	AssetID    string    `json:"asset_id"`
	Name       string    `json:"name"`
	DueAt      time.Time `json:"due_at"`
}

// Compliance events

// ComplianceExpiringEvent is published for documents near expiry
type ComplianceExpiringEvent struct {
	DocumentID string    `json:"document_id"`
	TenantID   string    `json:"tenant_id"`
	VendorID   *string   `json:"vendor_id,omitempty"`
	Type       string    `json:"type"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Incident events

// IncidentReportedEvent is published when an emergency incident is reported
type IncidentReportedEvent struct {
	IncidentID string  `json:"incident_id"`
	TenantID   string  `json:"tenant_id"`
	Title      string  `json:"title"`
	Severity   string  `json:"severity"`
	LocationID *string `json:"location_id,omitempty"`
}

// IncidentResolvedEvent is published when an incident is resolved
type IncidentResolvedEvent struct {
	IncidentID string    `json:"incident_id"`
	TenantID   string    `json:"tenant_id"`
	ResolvedAt time.Time `json:"resolved_at"`
}
