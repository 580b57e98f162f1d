package handler

import (
	"net/http"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/apierror"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type UtilityAnalyticsHandler struct {
	svc service.UtilityAnalyticsService
	rdb *redis.Client
	ttl time.Duration
}

func NewUtilityAnalyticsHandler(svc service.UtilityAnalyticsService, rdb *redis.Client, ttl time.Duration) *UtilityAnalyticsHandler {
	return &UtilityAnalyticsHandler{svc: svc, rdb: rdb, ttl: ttl}
}

// Metrics godoc
// @Summary Utility expense rollup by type for a property
// @Description Per-type count, total, and average, with the portfolio average and per-unit / per-square-foot normalizations.
// @Tags utility-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Property UUID"
// @Param period query string false "Period type"
// @Param date   query string false "Reference date YYYY-MM-DD"
// @Param type   query string false "Narrow to one utility type"
// @Success 200 {object} dto.UtilityMetricsResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/properties/{id}/utilities/metrics [get]
func (h *UtilityAnalyticsHandler) Metrics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.UtilityMetricsQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}

	key := metricsCacheKey(c)
	var cached dto.UtilityMetricsResponse
	if tryCache(c, h.rdb, key, &cached) {
		return
	}

	resp, err := h.svc.Metrics(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	storeCache(h.rdb, key, resp, h.ttl)
	c.JSON(http.StatusOK, resp)
}

// Trend godoc
// @Summary Monthly utility cost cells per type for a property
// @Tags utility-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Property UUID"
// @Param months query int    false "Trailing months (default 12)"
// @Success 200 {object} dto.UtilityTrendResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/properties/{id}/utilities/trend [get]
func (h *UtilityAnalyticsHandler) Trend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.UtilityTrendQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.TrendSeries(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Anomalies godoc
// @Summary Portfolio-wide utility cost anomaly detection
// @Description Flags property/type cells whose cost deviates from the portfolio mean by more than multiplier × standard deviation.
// @Tags utility-metrics
// @Produce json
// @Security BearerAuth
// @Param period     query string  false "Period type"
// @Param date       query string  false "Reference date YYYY-MM-DD"
// @Param multiplier query number false "Std-dev multiplier (default from config)"
// @Success 200 {object} dto.AnomalyResponse
// @Router /v1/utilities/anomalies [get]
func (h *UtilityAnalyticsHandler) Anomalies(c *gin.Context) {
	var q dto.AnomalyQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.Anomalies(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
