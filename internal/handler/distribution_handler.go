package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidario/donation-api/internal/dto"
	"github.com/solidario/donation-api/internal/models"
	"github.com/solidario/donation-api/internal/service"
	appErrors "github.com/solidario/donation-api/pkg/errors"
	"github.com/solidario/donation-api/pkg/response"
)

// DistributionHandler exposes distribution endpoints.
type DistributionHandler struct {
	service *service.DistributionService
}

// NewDistributionHandler constructs a distribution handler.
func NewDistributionHandler(svc *service.DistributionService) *DistributionHandler {
	return &DistributionHandler{service: svc}
}

func (h *DistributionHandler) listWithFilter(c *gin.Context, filter models.DistributionFilter) {
	filter.Status = models.DistributionStatus(c.Query("status"))
	filter.IncludeDeleted = parseBoolQuery(c, "includeDeleted")
	filter.Page, filter.PageSize = parsePagination(c)

	distributions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distributions, pagination)
}

// List godoc
// @Summary List distributions
// @Tags Distributions
// @Produce json
// @Param donationId query string false "Filter by donation"
// @Param familyId query string false "Filter by family"
// @Param status query string false "Filter by status"
// @Param includeDeleted query bool false "Include soft-deleted records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions [get]
func (h *DistributionHandler) List(c *gin.Context) {
	h.listWithFilter(c, models.DistributionFilter{
		DonationID: c.Query("donationId"),
		FamilyID:   c.Query("familyId"),
	})
}

// ListByDonation godoc
// @Summary List distributions of a donation
// @Tags Distributions
// @Produce json
// @Param donationId path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/donation/{donationId} [get]
func (h *DistributionHandler) ListByDonation(c *gin.Context) {
	h.listWithFilter(c, models.DistributionFilter{DonationID: c.Param("donationId")})
}

// ListByFamily godoc
// @Summary List distributions received by a family
// @Tags Distributions
// @Produce json
// @Param familyId path string true "Family ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/family/{familyId} [get]
func (h *DistributionHandler) ListByFamily(c *gin.Context) {
	h.listWithFilter(c, models.DistributionFilter{FamilyID: c.Param("familyId")})
}

// ListForDonation godoc
// @Summary List distributions nested under a donation
// @Tags Distributions
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /donations/{id}/distributions [get]
func (h *DistributionHandler) ListForDonation(c *gin.Context) {
	h.listWithFilter(c, models.DistributionFilter{DonationID: c.Param("id")})
}

// ListForFamily godoc
// @Summary List distributions nested under a family
// @Tags Distributions
// @Produce json
// @Param id path string true "Family ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /families/{id}/distributions [get]
func (h *DistributionHandler) ListForFamily(c *gin.Context) {
	h.listWithFilter(c, models.DistributionFilter{FamilyID: c.Param("id")})
}

// Get godoc
// @Summary Get distribution detail
// @Tags Distributions
// @Produce json
// @Param id path string true "Distribution ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/{id} [get]
func (h *DistributionHandler) Get(c *gin.Context) {
	distribution, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution, nil)
}

// Create godoc
// @Summary Register a distribution
// @Tags Distributions
// @Accept json
// @Produce json
// @Param payload body dto.CreateDistributionRequest true "Distribution payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions [post]
func (h *DistributionHandler) Create(c *gin.Context) {
	var req dto.CreateDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	distribution, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, distribution)
}

// Update godoc
// @Summary Update a distribution
// @Tags Distributions
// @Accept json
// @Produce json
// @Param id path string true "Distribution ID"
// @Param payload body dto.UpdateDistributionRequest true "Distribution payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/{id} [put]
func (h *DistributionHandler) Update(c *gin.Context) {
	var req dto.UpdateDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	distribution, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution, nil)
}

// Cancel godoc
// @Summary Cancel a distribution and return its quantity to stock
// @Tags Distributions
// @Produce json
// @Param id path string true "Distribution ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/{id}/cancel [post]
func (h *DistributionHandler) Cancel(c *gin.Context) {
	distribution, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution, nil)
}

// ConfirmDelivery godoc
// @Summary Mark a distribution as delivered
// @Tags Distributions
// @Produce json
// @Param id path string true "Distribution ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /distributions/{id}/deliver [post]
func (h *DistributionHandler) ConfirmDelivery(c *gin.Context) {
	distribution, err := h.service.ConfirmDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution, nil)
}
