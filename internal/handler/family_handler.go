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

// FamilyHandler exposes family and beneficiary endpoints.
type FamilyHandler struct {
	service *service.FamilyService
}

// NewFamilyHandler constructs a family handler.
func NewFamilyHandler(svc *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{service: svc}
}

// List godoc
// @Summary List families
// @Tags Families
// @Produce json
// @Param city query string false "Filter by city"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /families [get]
func (h *FamilyHandler) List(c *gin.Context) {
	var filter models.FamilyFilter
	filter.City = c.Query("city")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.IncludeDeleted = parseBoolQuery(c, "includeDeleted")
	filter.Page, filter.PageSize = parsePagination(c)

	families, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, families, pagination)
}

// Get godoc
// @Summary Get family detail
// @Tags Families
// @Produce json
// @Param id path string true "Family ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /families/{id} [get]
func (h *FamilyHandler) Get(c *gin.Context) {
	family, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, family, nil)
}

// Create godoc
// @Summary Register a family
// @Tags Families
// @Accept json
// @Produce json
// @Param payload body dto.CreateFamilyRequest true "Family payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /families [post]
func (h *FamilyHandler) Create(c *gin.Context) {
	var req dto.CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	family, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, family)
}

// Update godoc
// @Summary Update a family
// @Tags Families
// @Accept json
// @Produce json
// @Param id path string true "Family ID"
// @Param payload body dto.UpdateFamilyRequest true "Family payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /families/{id} [put]
func (h *FamilyHandler) Update(c *gin.Context) {
	var req dto.UpdateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	family, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, family, nil)
}

// Delete godoc
// @Summary Soft-delete a family
// @Tags Families
// @Produce json
// @Param id path string true "Family ID"
// @Success 204
// @Security BearerAuth
// @Router /families/{id} [delete]
func (h *FamilyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBeneficiaries godoc
// @Summary List beneficiaries
// @Tags Beneficiaries
// @Produce json
// @Param familyId query string false "Filter by family"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /beneficiaries [get]
func (h *FamilyHandler) ListBeneficiaries(c *gin.Context) {
	var filter models.BeneficiaryFilter
	filter.FamilyID = c.Query("familyId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.IncludeDeleted = parseBoolQuery(c, "includeDeleted")
	filter.Page, filter.PageSize = parsePagination(c)

	beneficiaries, pagination, err := h.service.ListBeneficiaries(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, beneficiaries, pagination)
}

// CreateBeneficiary godoc
// @Summary Register a beneficiary
// @Tags Beneficiaries
// @Accept json
// @Produce json
// @Param payload body dto.CreateBeneficiaryRequest true "Beneficiary payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /beneficiaries [post]
func (h *FamilyHandler) CreateBeneficiary(c *gin.Context) {
	var req dto.CreateBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	beneficiary, err := h.service.CreateBeneficiary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, beneficiary)
}

// UpdateBeneficiary godoc
// @Summary Update a beneficiary
// @Tags Beneficiaries
// @Accept json
// @Produce json
// @Param id path string true "Beneficiary ID"
// @Param payload body dto.UpdateBeneficiaryRequest true "Beneficiary payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /beneficiaries/{id} [put]
func (h *FamilyHandler) UpdateBeneficiary(c *gin.Context) {
	var req dto.UpdateBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	beneficiary, err := h.service.UpdateBeneficiary(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, beneficiary, nil)
}

// DeleteBeneficiary godoc
// @Summary Soft-delete a beneficiary
// @Tags Beneficiaries
// @Produce json
// @Param id path string true "Beneficiary ID"
// @Success 204
// @Security BearerAuth
// @Router /beneficiaries/{id} [delete]
func (h *FamilyHandler) DeleteBeneficiary(c *gin.Context) {
	if err := h.service.DeleteBeneficiary(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
