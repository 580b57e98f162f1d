package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/apierror"
	"github.com/rilaconsulting/pmpulse-sub002/internal/dto"
	"github.com/rilaconsulting/pmpulse-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// VendorAnalyticsHandler serves the vendor metric routes. Rollup responses
// are cached in Redis cache-aside: dashboards hammer the same vendor/period
// combinations and the underlying aggregates only move when work orders
// change.
type VendorAnalyticsHandler struct {
	svc service.VendorAnalyticsService
	rdb *redis.Client
	ttl time.Duration
}

func NewVendorAnalyticsHandler(svc service.VendorAnalyticsService, rdb *redis.Client, ttl time.Duration) *VendorAnalyticsHandler {
	return &VendorAnalyticsHandler{svc: svc, rdb: rdb, ttl: ttl}
}

// tryCache writes the cached response and returns true on a hit.
func tryCache(c *gin.Context, rdb *redis.Client, key string, out interface{}) bool {
	cached, err := rdb.Get(c.Request.Context(), key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(cached, out); err != nil {
		return false
	}
	c.JSON(http.StatusOK, out)
	return true
}

// storeCache populates the cache best-effort; a Redis hiccup never fails the
// request.
func storeCache(rdb *redis.Client, key string, resp interface{}, ttl time.Duration) {
	if b, err := json.Marshal(resp); err == nil {
		_ = rdb.Set(context.Background(), key, b, ttl).Err()
	}
}

func metricsCacheKey(c *gin.Context) string {
	return "metrics:" + c.Request.URL.RequestURI()
}

// Metrics godoc
// @Summary Period-scoped work order rollup for a vendor
// @Description Count, total spend, non-zero average cost, and average completion days. include_group folds in the vendor's whole canonical/duplicate group.
// @Tags vendor-metrics
// @Produce json
// @Security BearerAuth
// @Param id            path  string true  "Vendor UUID"
// @Param period        query string false "month | last_month | last_3_months | last_6_months | last_12_months | quarter | ytd | year"
// @Param date          query string false "Reference date YYYY-MM-DD (default today)"
// @Param include_group query bool   false "Include the canonical/duplicate group"
// @Success 200 {object} dto.VendorMetricsResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/metrics [get]
func (h *VendorAnalyticsHandler) Metrics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.MetricsQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}

	key := metricsCacheKey(c)
	var cached dto.VendorMetricsResponse
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
// @Summary Monthly trend series for a vendor, zero-filled
// @Tags vendor-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Vendor UUID"
// @Param months query int    false "Trailing months (default 12)"
// @Success 200 {object} dto.TrendResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/metrics/trend [get]
func (h *VendorAnalyticsHandler) Trend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.TrendQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}

	key := metricsCacheKey(c)
	var cached dto.TrendResponse
	if tryCache(c, h.rdb, key, &cached) {
		return
	}

	resp, err := h.svc.TrendSeries(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	storeCache(h.rdb, key, resp, h.ttl)
	c.JSON(http.StatusOK, resp)
}

// Comparison godoc
// @Summary Current vs previous period spend and count
// @Tags vendor-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Vendor UUID"
// @Param period query string false "Period type"
// @Param date   query string false "Reference date YYYY-MM-DD"
// @Success 200 {object} dto.PeriodComparisonResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/metrics/comparison [get]
func (h *VendorAnalyticsHandler) Comparison(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.MetricsQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.PeriodComparison(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TradeComparison godoc
// @Summary Rank a vendor among canonical peers sharing each of its trades
// @Tags vendor-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Vendor UUID"
// @Param period query string false "Period type"
// @Param date   query string false "Reference date YYYY-MM-DD"
// @Param metric query string false "count | spend | avg_cost | avg_completion"
// @Success 200 {object} dto.TradeComparisonResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/metrics/trade-comparison [get]
func (h *VendorAnalyticsHandler) TradeComparison(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.TradeComparisonQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.TradeComparison(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResponseTimes godoc
// @Summary Completed work orders bucketed by days to completion
// @Tags vendor-metrics
// @Produce json
// @Security BearerAuth
// @Param id     path  string true  "Vendor UUID"
// @Param period query string false "Period type"
// @Param date   query string false "Reference date YYYY-MM-DD"
// @Success 200 {object} dto.ResponseTimeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/vendors/{id}/metrics/response-times [get]
func (h *VendorAnalyticsHandler) ResponseTimes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var q dto.MetricsQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.ResponseTimes(c.Request.Context(), id, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
