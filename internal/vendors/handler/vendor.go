package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/siteops/siteops-backend/internal/vendors/repository"
	"github.com/siteops/siteops-backend/internal/vendors/service"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// VendorHandler handles vendor and compliance document endpoints
type VendorHandler struct {
	service *service.VendorService
	logger  *logger.Logger
}

// NewVendorHandler creates a new vendor handler
func NewVendorHandler(svc *service.VendorService, log *logger.Logger) *VendorHandler {
	return &VendorHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the vendor endpoints
func (h *VendorHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/documents", h.AddDocument)
	r.Get("/{id}/documents", h.ListDocuments)
	r.Get("/documents/expiring", h.ListExpiring)
	r.Put("/documents/{documentID}", h.UpdateDocument)
	r.Delete("/documents/{documentID}", h.DeleteDocument)
}

// VendorRequest is the request body for creating or updating a vendor
type VendorRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Trade        string   `json:"trade" validate:"required,max=100"`
	ContactEmail *string  `json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string  `json:"contact_phone"`
	HourlyRate   *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	IsActive     *bool    `json:"is_active"`
}

// Create registers a new vendor
func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req VendorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	vendor := &repository.Vendor{
		Name:         req.Name,
		Trade:        req.Trade,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		HourlyRate:   req.HourlyRate,
		IsActive:     true,
	}
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}

	if err := h.service.Create(r.Context(), scope, vendor); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, vendor)
}

// List lists vendors
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"

	vendors, err := h.service.List(r.Context(), scope, activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, vendors)
}

// Get gets a vendor by ID
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	vendor, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, vendor)
}

// Update changes a vendor's fields
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req VendorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	vendor, err := h.service.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	vendor.Name = req.Name
	vendor.Trade = req.Trade
	vendor.ContactEmail = req.ContactEmail
	vendor.ContactPhone = req.ContactPhone
	vendor.HourlyRate = req.HourlyRate
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}

	if err := h.service.Update(r.Context(), scope, vendor); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, vendor)
}

// Delete soft-deletes a vendor
func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// DocumentRequest is the request body for filing a compliance document
type DocumentRequest struct {
	Type      string    `json:"type" validate:"required"`
	Name      string    `json:"name" validate:"required,max=200"`
	Reference *string   `json:"reference"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// AddDocument files a compliance document for a vendor
func (h *VendorHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req DocumentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	vendorID := chi.URLParam(r, "id")
	doc := &repository.ComplianceDocument{
		VendorID:  &vendorID,
		Type:      req.Type,
		Name:      req.Name,
		Reference: req.Reference,
		ExpiresAt: req.ExpiresAt,
	}

	if err := h.service.AddDocument(r.Context(), scope, doc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, doc)
}

// ListDocuments lists a vendor's compliance documents
func (h *VendorHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, docs)
}

// ListExpiring lists documents expiring within a window (default 30 days)
func (h *VendorHandler) ListExpiring(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	within := 30 * 24 * time.Hour
	if raw := r.URL.Query().Get("within"); raw != "" {
		within, err = time.ParseDuration(raw)
		if err != nil || within < 0 {
			httputil.Error(w, errors.BadRequest("within must be a positive duration such as 720h"))
			return
		}
	}

	docs, err := h.service.ListExpiring(r.Context(), scope, within)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, docs)
}

// UpdateDocument changes a compliance document's fields
func (h *VendorHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req DocumentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	doc, err := h.service.GetDocument(r.Context(), scope, chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	doc.Type = req.Type
	doc.Name = req.Name
	doc.Reference = req.Reference
	doc.ExpiresAt = req.ExpiresAt

	if err := h.service.UpdateDocument(r.Context(), scope, doc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a compliance document
func (h *VendorHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	if err := h.service.DeleteDocument(r.Context(), scope, chi.URLParam(r, "documentID")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
