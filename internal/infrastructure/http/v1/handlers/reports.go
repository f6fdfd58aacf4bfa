package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocktally/internal/domain/reports"
	"stocktally/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers the report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/period", h.Period)
	rg.GET("/monthly", h.Monthly)
	rg.GET("/count-summary", h.CountSummary)
}

// Period handles GET /reports/period.
func (h *ReportsHandler) Period(c *gin.Context) {
	var query dto.PeriodReportQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter(time.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.PeriodReport(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Monthly handles GET /reports/monthly.
func (h *ReportsHandler) Monthly(c *gin.Context) {
	var query dto.MonthlyTotalsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if err := query.Validate(); err != nil {
		h.Error(c, err)
		return
	}

	snap, err := h.service.MonthlyTotals(c.Request.Context(), query.Year, time.Month(query.Month))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snap)
}

// CountSummary handles GET /reports/count-summary.
func (h *ReportsHandler) CountSummary(c *gin.Context) {
	var query dto.CountSummaryQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.CountSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
