package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/siteops/siteops-backend/internal/incident/repository"
	"github.com/siteops/siteops-backend/internal/incident/service"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// IncidentHandler handles emergency incident endpoints
type IncidentHandler struct {
	service *service.IncidentService
	logger  *logger.Logger
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(svc *service.IncidentService, log *logger.Logger) *IncidentHandler {
	return &IncidentHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the incident endpoints
func (h *IncidentHandler) Routes(r chi.Router) {
	r.Post("/", h.Report)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/respond", h.Respond)
	r.Post("/{id}/resolve", h.Resolve)
	r.Post("/{id}/ticket", h.LinkTicket)
}

// ReportIncidentRequest is the request body for reporting an incident
type ReportIncidentRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Severity    string  `json:"severity" validate:"required"`
	LocationID  *string `json:"location_id"`
}

// Report records a new incident
func (h *IncidentHandler) Report(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req ReportIncidentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	inc := &repository.Incident{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		LocationID:  req.LocationID,
	}

	if err := h.service.Report(r.Context(), scope, inc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, inc)
}

// List lists incidents
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	incidents, err := h.service.List(r.Context(), scope, r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, incidents)
}

// Get gets an incident by ID
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	inc, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, inc)
}

// Respond moves an incident to responding
func (h *IncidentHandler) Respond(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	inc, err := h.service.Respond(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, inc)
}

// Resolve closes an incident
func (h *IncidentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	inc, err := h.service.Resolve(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, inc)
}

// LinkTicketRequest is the request body for linking a work order
type LinkTicketRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
}

// LinkTicket attaches the work order opened to handle the incident
func (h *IncidentHandler) LinkTicket(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req LinkTicketRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	inc, err := h.service.LinkTicket(r.Context(), scope, chi.URLParam(r, "id"), req.TicketID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, inc)
}
