package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/internal/budget/service"
	"github.com/siteops/siteops-backend/pkg/errors"
	"github.com/siteops/siteops-backend/pkg/httputil"
	"github.com/siteops/siteops-backend/pkg/logger"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// BudgetHandler handles budget allocation and analytics endpoints
type BudgetHandler struct {
	service *service.BudgetService
	logger  *logger.Logger
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(svc *service.BudgetService, log *logger.Logger) *BudgetHandler {
	return &BudgetHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the budget endpoints
func (h *BudgetHandler) Routes(r chi.Router) {
	r.Post("/allocations", h.Create)
	r.Get("/allocations", h.List)
	r.Get("/allocations/{id}", h.Get)
	r.Put("/allocations/{id}", h.Update)
	r.Delete("/allocations/{id}", h.Delete)
	r.Get("/allocations/{id}/forecast", h.Forecast)

	r.Get("/summary", h.Summary)
	r.Get("/spend-by-category", h.SpendByCategory)
	r.Get("/utilization-by-location", h.UtilizationByLocation)
	r.Get("/monthly-trend", h.MonthlyTrend)
	r.Get("/year-over-year", h.YearOverYear)
	r.Get("/report", h.Report)
}

// CreateAllocationRequest is the request body for creating an allocation
type CreateAllocationRequest struct {
	LocationID *string `json:"location_id"`
	Category   string  `json:"category"`
	FiscalYear int     `json:"fiscal_year" validate:"required,gte=2000,lte=2100"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	Notes      *string `json:"notes"`
}

// Create creates a new budget allocation
func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req CreateAllocationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	alloc := &repository.Allocation{
		LocationID: req.LocationID,
		Category:   req.Category,
		FiscalYear: req.FiscalYear,
		Amount:     req.Amount,
		Notes:      req.Notes,
	}

	if err := h.service.CreateAllocation(r.Context(), scope, alloc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, alloc)
}

// List lists the year's allocations with computed spend
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summaries, err := h.service.ListWithSpend(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}

// Get gets an allocation by ID with computed spend
func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	summary, err := h.service.GetBudgetWithSpend(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// UpdateAllocationRequest is the request body for updating an allocation
type UpdateAllocationRequest struct {
	LocationID *string `json:"location_id"`
	Category   string  `json:"category" validate:"required"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	Notes      *string `json:"notes"`
}

// Update updates an allocation's own fields
func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	var req UpdateAllocationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	alloc, err := h.service.GetAllocation(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	alloc.LocationID = req.LocationID
	alloc.Category = req.Category
	alloc.Amount = req.Amount
	alloc.Notes = req.Notes

	if err := h.service.UpdateAllocation(r.Context(), scope, alloc); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alloc)
}

// Delete soft-deletes an allocation
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	if err := h.service.DeleteAllocation(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Forecast projects an allocation's year-end spend
func (h *BudgetHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	forecast, err := h.service.ForecastAllocation(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, forecast)
}

// Summary returns tenant-wide totals for the year
func (h *BudgetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.service.Summarize(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// SpendByCategory returns the per-category spend breakdown
func (h *BudgetHandler) SpendByCategory(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var locationID *string
	if v := r.URL.Query().Get("location_id"); v != "" {
		locationID = &v
	}

	rows, err := h.service.SpendByCategory(r.Context(), scope, year, locationID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}

// UtilizationByLocation returns per-location budget utilization
func (h *BudgetHandler) UtilizationByLocation(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rows, err := h.service.UtilizationByLocation(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}

// MonthlyTrend returns the 12-month spend trend
func (h *BudgetHandler) MonthlyTrend(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var locationID *string
	if v := r.URL.Query().Get("location_id"); v != "" {
		locationID = &v
	}
	category := r.URL.Query().Get("category")

	trend, err := h.service.MonthlySpendTrend(r.Context(), scope, year, locationID, category)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, trend)
}

// YearOverYear compares the year's spend against the previous year
func (h *BudgetHandler) YearOverYear(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	comparison, err := h.service.YearOverYear(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, comparison)
}

// Report renders the year's budget report as a PDF download
func (h *BudgetHandler) Report(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.Error(w, errors.Forbidden("tenant context required"))
		return
	}

	year, err := fiscalYearParam(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	pdf, err := h.service.YearReportPDF(r.Context(), scope, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.File(w, "application/pdf", fmt.Sprintf("budget-report-%d.pdf", year), pdf)
}

// fiscalYearParam reads the fiscal_year query parameter, defaulting to
// the current calendar year.
func fiscalYearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("fiscal_year")
	if raw == "" {
		return time.Now().UTC().Year(), nil
	}

	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, errors.BadRequest("fiscal_year must be a four digit year")
	}

	return year, nil
}
