package handler

import (
	"net/http"
	"strconv"

	"github.com/rilaconsulting/pmpulse-sub002/internal/apierror"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DedupHandler struct{ svc service.DedupService }

func NewDedupHandler(svc service.DedupService) *DedupHandler {
	return &DedupHandler{svc: svc}
}

// CreateAnalysis godoc
// @Summary Trigger an asynchronous vendor duplicate analysis
// @Description Creates a pending analysis record and enqueues the O(n²) pairwise scan. Poll the record for status and results.
// @Tags dedup
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateAnalysisRequest true "Threshold and result cap"
// @Success 202 {object} dto.AnalysisResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/dedup/analyses [post]
func (h *DedupHandler) CreateAnalysis(c *gin.Context) {
	var req dto.CreateAnalysisRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RequestAnalysis(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to schedule analysis"))
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetAnalysis godoc
// @Summary Get an analysis with its results once completed
// @Tags dedup
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis UUID"
// @Success 200 {object} dto.AnalysisResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/dedup/analyses/{id} [get]
func (h *DedupHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAnalyses godoc
// @Summary List recent analyses, newest first
// @Tags dedup
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max records (default 20)"
// @Success 200 {object} dto.AnalysisListResponse
// @Router /v1/dedup/analyses [get]
func (h *DedupHandler) ListAnalyses(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	resp, err := h.svc.ListAnalyses(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list analyses"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
