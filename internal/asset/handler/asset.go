package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/siteops/siteops-backend/internal/asset/repository"
	"github.com/siteops/siteops-backend/internal/asset/service"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// AssetHandler handles asset and maintenance schedule endpoints
type AssetHandler struct {
	assets *service.AssetService
	pm     *service.PMService
	logger *logger.Logger
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(assets *service.AssetService, pm *service.PMService, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		assets: assets,
		pm:     pm,
		logger: log,
	}
}

// Routes mounts the asset endpoints
func (h *AssetHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/schedules", h.CreateSchedule)
	r.Get("/{id}/schedules", h.ListSchedules)
	r.Post("/schedules/{scheduleID}/complete", h.CompleteSchedule)
	r.Delete("/schedules/{scheduleID}", h.DeleteSchedule)
	r.Get("/schedules/due", h.ListDue)
}

// AssetRequest is the request body for creating or updating an asset
type AssetRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	LocationID   *string `json:"location_id"`
	Category     string  `json:"category" validate:"required,max=100"`
	SerialNumber *string `json:"serial_number"`
	Status       string  `json:"status"`
}

// Create registers a new asset
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req AssetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	asset := &repository.Asset{
		Name:         req.Name,
		LocationID:   req.LocationID,
		Category:     req.Category,
		SerialNumber: req.SerialNumber,
		Status:       req.Status,
	}

	if err := h.assets.Create(r.Context(), scope, asset); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, asset)
}

// List lists assets
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var locationID *string
	if v := r.URL.Query().Get("location_id"); v != "" {
		locationID = &v
	}

	assets, err := h.assets.List(r.Context(), scope, locationID, r.URL.Query().Get("status"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, assets)
}

// Get gets an asset by ID
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	asset, err := h.assets.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, asset)
}

// Update changes an asset's fields
func (h *AssetHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req AssetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	asset, err := h.assets.GetByID(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	asset.Name = req.Name
	asset.LocationID = req.LocationID
	asset.Category = req.Category
	asset.SerialNumber = req.SerialNumber
	if req.Status != "" {
		asset.Status = req.Status
	}

	if err := h.assets.Update(r.Context(), scope, asset); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, asset)
}

// Delete soft-deletes an asset
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	if err := h.assets.Delete(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ScheduleRequest is the request body for creating a PM schedule
type ScheduleRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Frequency string     `json:"frequency" validate:"required"`
	NextDueAt *time.Time `json:"next_due_at"`
}

// CreateSchedule adds a maintenance schedule to an asset
func (h *AssetHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sched := &repository.PMSchedule{
		AssetID:   chi.URLParam(r, "id"),
		Title:     req.Title,
		Frequency: req.Frequency,
	}
	if req.NextDueAt != nil {
		sched.NextDueAt = *req.NextDueAt
	}

	if err := h.pm.Create(r.Context(), scope, sched); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sched)
}

// ListSchedules lists an asset's maintenance schedules
func (h *AssetHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	schedules, err := h.pm.ListByAsset(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, schedules)
}

// CompleteSchedule records a completed maintenance round
func (h *AssetHandler) CompleteSchedule(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	sched, err := h.pm.Complete(r.Context(), scope, chi.URLParam(r, "scheduleID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sched)
}

// DeleteSchedule soft-deletes a maintenance schedule
func (h *AssetHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	if err := h.pm.Delete(r.Context(), scope, chi.URLParam(r, "scheduleID")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListDue lists schedules due on or before a date (default now)
func (h *AssetHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	by := time.Now().UTC()
	if raw := r.URL.Query().Get("by"); raw != "" {
		by, err = time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("by must be a date in YYYY-MM-DD form"))
			return
		}
	}

	schedules, err := h.pm.ListDue(r.Context(), scope, by)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, schedules)
}
