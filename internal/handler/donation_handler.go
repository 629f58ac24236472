package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/service"
	appErrors "github.com/solidario/donation-api/pkg/errors"
	"github.com/solidario/donation-api/pkg/response"
)

// DonationHandler exposes donation CRUD and stock endpoints.
type DonationHandler struct {
	donations     *service.DonationService
	distributions *service.DistributionService
}

// NewDonationHandler constructs a donation handler.
func NewDonationHandler(donations *service.DonationService, distributions *service.DistributionService) *DonationHandler {
	return &DonationHandler{donations: donations, distributions: distributions}
}

// List godoc
// @Summary List donations
// @Tags Donations
// @Produce json
// @Param status query string false "Filter by status"
// @Param categoryId query string false "Filter by category"
// @Param donor query string false "Donor name search"
// @Param startDate query string false "Received from (YYYY-MM-DD)"
// @Param endDate query string false "Received to (YYYY-MM-DD)"
// @Param includeDeleted query bool false "Include soft-deleted records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	var filter models.DonationFilter
	filter.Status = models.DonationStatus(c.Query("status"))
	filter.CategoryID = c.Query("categoryId")
	filter.DonorSearch = strings.TrimSpace(c.Query("donor"))
	filter.ReceivedFrom = parseDateQuery(c, "startDate")
	filter.ReceivedTo = parseDateQuery(c, "endDate")
	filter.IncludeDeleted = parseBoolQuery(c, "includeDeleted")
	filter.Page, filter.PageSize = parsePagination(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	donations, pagination, err := h.donations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}

// Get godoc
// @Summary Get donation detail
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /donations/{id} [get]
func (h *DonationHandler) Get(c *gin.Context) {
	donation, err := h.donations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Create godoc
// @Summary Register a donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDonationRequest true "Donation payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	donation, err := h.donations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, donation)
}

// Update godoc
// @Summary Update a donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param payload body dto.UpdateDonationRequest true "Donation payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /donations/{id} [put]
func (h *DonationHandler) Update(c *gin.Context) {
	var req dto.UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	donation, err := h.donations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Delete godoc
// @Summary Soft-delete a donation
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 204
// @Security BearerAuth
// @Router /donations/{id} [delete]
func (h *DonationHandler) Delete(c *gin.Context) {
	if err := h.donations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Get donation stock and distribution stats
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /donations/{id}/stats [get]
func (h *DonationHandler) Stats(c *gin.Context) {
	stats, err := h.distributions.DonationStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
