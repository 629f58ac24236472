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

// VolunteerHandler exposes volunteer endpoints.
type VolunteerHandler struct {
	service *service.VolunteerService
}

// NewVolunteerHandler constructs a volunteer handler.
func NewVolunteerHandler(svc *service.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{service: svc}
}

// List godoc
// @Summary List volunteers
// @Tags Volunteers
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers [get]
func (h *VolunteerHandler) List(c *gin.Context) {
	var filter models.VolunteerFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.IncludeDeleted = parseBoolQuery(c, "includeDeleted")
	filter.Page, filter.PageSize = parsePagination(c)

	volunteers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteers, pagination)
}

// Get godoc
// @Summary Get volunteer detail
// @Tags Volunteers
// @Produce json
// @Param id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id} [get]
func (h *VolunteerHandler) Get(c *gin.Context) {
	volunteer, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteer, nil)
}

// Create godoc
// @Summary Register a volunteer
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param payload body dto.CreateVolunteerRequest true "Volunteer payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers [post]
func (h *VolunteerHandler) Create(c *gin.Context) {
	var req dto.CreateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	volunteer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, volunteer)
}

// Update godoc
// @Summary Update a volunteer
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param id path string true "Volunteer ID"
// @Param payload body dto.UpdateVolunteerRequest true "Volunteer payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /volunteers/{id} [put]
func (h *VolunteerHandler) Update(c *gin.Context) {
	var req dto.UpdateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	volunteer, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteer, nil)
}

// Delete godoc
// @Summary Soft-delete a volunteer
// @Tags Volunteers
// @Produce json
// @Param id path string true "Volunteer ID"
// @Success 204
// @Security BearerAuth
// @Router /volunteers/{id} [delete]
func (h *VolunteerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
