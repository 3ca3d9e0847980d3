package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/siteops/siteops-backend/internal/ticket/repository"
	"github.com/siteops/siteops-backend/internal/ticket/service"
	"github.com/siteops/siteops-backend/pkg/actor"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// TicketHandler handles work order endpoints
type TicketHandler struct {
	service *service.TicketService
	logger  *logger.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(svc *service.TicketService, log *logger.Logger) *TicketHandler {
	return &TicketHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the ticket endpoints
func (h *TicketHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/actions", h.PerformAction)
	r.Get("/{id}/actions", h.AllowedActions)
}

// CreateTicketRequest is the request body for opening a ticket
type CreateTicketRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	LocationID  *string `json:"location_id"`
	Category    string  `json:"category" validate:"required,max=100"`
	Priority    string  `json:"priority"`
	VendorID    *string `json:"vendor_id"`
}

// Create opens a new ticket
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req CreateTicketRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	ticket := &repository.Ticket{
		Title:       req.Title,
		Description: req.Description,
		LocationID:  req.LocationID,
		Category:    req.Category,
		Priority:    req.Priority,
		VendorID:    req.VendorID,
	}

	if err := h.service.Create(r.Context(), scope, ticket); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, ticket)
}

// List lists tickets with filters and pagination
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	filter := repository.TicketFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Category: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("location_id"); v != "" {
		filter.LocationID = &v
	}
	if v := r.URL.Query().Get("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}

	tickets, total, err := h.service.List(r.Context(), scope, filter, perPage, (page-1)*perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, tickets, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets a ticket by ID
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	ticket, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ticket)
}

// UpdateTicketRequest is the request body for editing a ticket
type UpdateTicketRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	LocationID  *string `json:"location_id"`
	Category    string  `json:"category" validate:"required,max=100"`
	Priority    string  `json:"priority" validate:"required"`
	VendorID    *string `json:"vendor_id"`
}

// Update edits a ticket's fields. Status moves only through actions.
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req UpdateTicketRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	ticket, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	ticket.Title = req.Title
	ticket.Description = req.Description
	ticket.LocationID = req.LocationID
	ticket.Category = req.Category
	ticket.Priority = req.Priority
	ticket.VendorID = req.VendorID

	if err := h.service.Update(r.Context(), scope, ticket); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ticket)
}

// Delete soft-deletes a ticket
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	if err := h.service.Delete(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ActionRequest is the request body for a workflow action
type ActionRequest struct {
	Action     string   `json:"action" validate:"required"`
	Cost       *float64 `json:"cost"`
	AssigneeID *string  `json:"assignee_id"`
}

// PerformAction runs one workflow action on a ticket
func (h *TicketHandler) PerformAction(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req ActionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	ticket, err := h.service.PerformAction(r.Context(), scope, chi.URLParam(r, "id"), req.Action, req.Cost, req.AssigneeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ticket)
}

// AllowedActions lists the workflow actions the acting user may take
// on the ticket right now.
func (h *TicketHandler) AllowedActions(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	act := actor.FromContext(r.Context())
	if act == nil {
		httputil.Error(w, errors.Forbidden("acting user required"))
		return
	}

	ticket, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	actions := service.AllowedActions(ticket.Status, act.Role)
	if actions == nil {
		actions = []string{}
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  ticket.Status,
		"actions": actions,
	})
}

// Export downloads the year's tickets as CSV
func (h *TicketHandler) Export(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year := time.Now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < 2000 || year > 2100 {
			httputil.Error(w, errors.BadRequest("year must be a four digit year"))
			return
		}
	}

	data, err := h.service.ExportYearCSV(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.File(w, "text/csv", fmt.Sprintf("tickets-%d.csv", year), data)
}
