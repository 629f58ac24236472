package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/service"
	"github.com/solidario/donation-api/pkg/response"
)

// AnalyticsHandler exposes the reporting endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

func analyticsFilterFromQuery(c *gin.Context) models.AnalyticsFilter {
	return models.AnalyticsFilter{
		StartDate:  parseDateQuery(c, "startDate"),
		EndDate:    parseDateQuery(c, "endDate"),
		Period:     models.Period(c.DefaultQuery("period", string(models.PeriodMonth))),
		CategoryID: c.Query("categoryId"),
	}
}

// Overview godoc
// @Summary Donation and distribution overview with growth figures
// @Tags Analytics
// @Produce json
// @Param period query string false "today, week, month, quarter, year or all"
// @Param startDate query string false "Explicit window start (YYYY-MM-DD)"
// @Param endDate query string false "Explicit window end (YYYY-MM-DD)"
// @Param categoryId query string false "Restrict to a category"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	result, err := h.service.Overview(c.Request.Context(), analyticsFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Trends godoc
// @Summary Donation and distribution time series
// @Tags Analytics
// @Produce json
// @Param period query string false "today, week, month, quarter, year or all"
// @Param groupBy query string false "day, week, month, quarter or year"
// @Param categoryId query string false "Restrict to a category"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/trends [get]
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	groupBy := models.TrendGroupBy(c.DefaultQuery("groupBy", string(models.GroupByMonth)))
	result, err := h.service.Trends(c.Request.Context(), analyticsFilterFromQuery(c), groupBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Categories godoc
// @Summary Per-category donation performance
// @Tags Analytics
// @Produce json
// @Param period query string false "today, week, month, quarter, year or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/categories [get]
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	result, err := h.service.CategoryPerformance(c.Request.Context(), analyticsFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Donors godoc
// @Summary Donor segmentation and retention
// @Tags Analytics
// @Produce json
// @Param period query string false "today, week, month, quarter, year or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/donors [get]
func (h *AnalyticsHandler) Donors(c *gin.Context) {
	result, err := h.service.DonorAnalytics(c.Request.Context(), analyticsFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Efficiency godoc
// @Summary Distribution efficiency, timing and stock alerts
// @Tags Analytics
// @Produce json
// @Param period query string false "today, week, month, quarter, year or all"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/efficiency [get]
func (h *AnalyticsHandler) Efficiency(c *gin.Context) {
	result, err := h.service.EfficiencyMetrics(c.Request.Context(), analyticsFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
