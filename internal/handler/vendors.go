package handler

import (
	"net/http"

	"github.com/rilaconsulting/pmpulse-sub002/internal/apierror"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VendorsHandler struct{ svc service.VendorService }

func NewVendorsHandler(svc service.VendorService) *VendorsHandler {
	return &VendorsHandler{svc: svc}
}

// Create godoc
// @Summary Create a vendor
// @Tags vendors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateVendorRequest true "Vendor data"
// @Success 201 {object} dto.VendorResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/vendors [post]
func (h *VendorsHandler) Create(c *gin.Context) {
	var req dto.CreateVendorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary Update a vendor's contact fields
// @Tags vendors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id   path string                  true "Vendor UUID"
// @Param body body dto.UpdateVendorRequest true "Fields to change"
// @Success 200 {object} dto.VendorResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/vendors/{id} [put]
func (h *VendorsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdateVendorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a vendor with its duplicate count
// @Tags vendors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vendor UUID"
// @Success 200 {object} dto.VendorResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id} [get]
func (h *VendorsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List vendors
// @Tags vendors
// @Produce json
// @Security BearerAuth
// @Param canonical_only query bool   false "Only canonical vendors"
// @Param trade          query string false "Filter by trade substring"
// @Param page           query int    false "Page (default 1)"
// @Param limit          query int    false "Page size (default 50)"
// @Success 200 {object} dto.VendorListResponse
// @Router /v1/vendors [get]
func (h *VendorsHandler) List(c *gin.Context) {
	var filter dto.VendorFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list vendors"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkDuplicate godoc
// @Summary Mark a vendor as a duplicate of a canonical vendor
// @Tags vendors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id   path string                   true "Vendor UUID"
// @Param body body dto.MarkDuplicateRequest true "Canonical vendor reference"
// @Success 200 {object} dto.VendorMutationResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/vendors/{id}/mark-duplicate [post]
func (h *VendorsHandler) MarkDuplicate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.MarkDuplicateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarkDuplicate(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkCanonical godoc
// @Summary Clear a vendor's duplicate link (idempotent)
// @Tags vendors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vendor UUID"
// @Success 200 {object} dto.VendorMutationResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/mark-canonical [post]
func (h *VendorsHandler) MarkCanonical(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.MarkCanonical(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
