package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/umarmf343/vea-2025-sub003/internal/dto"
	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/service"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
	"github.com/umarmf343/vea-2025-sub003/pkg/response"
)

type financialAnalytics interface {
	ReplacePayments(ctx context.Context, raws []interface{}) (*models.FinancialAnalyticsSnapshot, error)
	Recompute(ctx context.Context) (*models.FinancialAnalyticsSnapshot, error)
	IngestPayments(ctx context.Context, raws []interface{}) (*models.FinancialAnalyticsSnapshot, error)
	RemovePayment(ctx context.Context, paymentID string) (*models.FinancialAnalyticsSnapshot, error)
	Snapshot(ctx context.Context) (*models.FinancialAnalyticsSnapshot, error)
	Period(ctx context.Context, key models.PeriodKey) (*models.PeriodAnalytics, error)
}

type financialExports interface {
	DefaultersCSV(ctx context.Context) (*service.ExportFile, error)
	FeeCollectionCSV(ctx context.Context, period models.PeriodKey) (*service.ExportFile, error)
}

// FinancialAnalyticsHandler exposes payment ingestion and the financial analytics snapshot.
type FinancialAnalyticsHandler struct {
	analytics financialAnalytics
	exports   financialExports
}

// NewFinancialAnalyticsHandler constructs the handler.
func NewFinancialAnalyticsHandler(analytics financialAnalytics, exports financialExports) *FinancialAnalyticsHandler {
	return &FinancialAnalyticsHandler{analytics: analytics, exports: exports}
}

// IngestPayments godoc
// @Summary Append raw payment records and rebuild financial analytics
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body dto.IngestPaymentsRequest true "Payment records"
// @Success 200 {object} response.Envelope
// @Router /finance/payments [post]
func (h *FinancialAnalyticsHandler) IngestPayments(c *gin.Context) {
	var req dto.IngestPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "payments array required"))
		return
	}
	snapshot, err := h.analytics.IngestPayments(c.Request.Context(), req.Payments)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// RemovePayment godoc
// @Summary Delete a payment record and rebuild financial analytics
// @Tags Finance
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /finance/payments/{id} [delete]
func (h *FinancialAnalyticsHandler) RemovePayment(c *gin.Context) {
	snapshot, err := h.analytics.RemovePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Recompute godoc
// @Summary Rebuild financial analytics; a payments body replaces the stored records first
// @Tags Finance
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/analytics/recompute [post]
func (h *FinancialAnalyticsHandler) Recompute(c *gin.Context) {
	var req dto.RecomputeFinancialRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid recompute payload"))
			return
		}
	}
	var (
		snapshot *models.FinancialAnalyticsSnapshot
		err      error
	)
	if req.Payments != nil {
		snapshot, err = h.analytics.ReplacePayments(c.Request.Context(), req.Payments)
	} else {
		snapshot, err = h.analytics.Recompute(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Snapshot godoc
// @Summary Financial analytics for every period plus defaulters
// @Tags Finance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/analytics [get]
func (h *FinancialAnalyticsHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.analytics.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"generated_at": snapshot.GeneratedAt})
}

// Period godoc
// @Summary Financial analytics for one period
// @Tags Finance
// @Produce json
// @Param period path string true "current-term | last-term | current-session | last-session | all"
// @Success 200 {object} response.Envelope
// @Router /finance/analytics/{period} [get]
func (h *FinancialAnalyticsHandler) Period(c *gin.Context) {
	key := models.PeriodKey(strings.ToLower(c.Param("period")))
	period, err := h.analytics.Period(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, map[string]interface{}{"period": key})
}

// DefaultersCSV godoc
// @Summary Download the defaulter list
// @Tags Finance
// @Produce text/csv
// @Router /finance/defaulters.csv [get]
func (h *FinancialAnalyticsHandler) DefaultersCSV(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	file, err := h.exports.DefaultersCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// FeeCollectionCSV godoc
// @Summary Download the monthly fee collection table of a period
// @Tags Finance
// @Produce text/csv
// @Param period path string true "Period key"
// @Router /finance/analytics/{period}/fee-collection.csv [get]
func (h *FinancialAnalyticsHandler) FeeCollectionCSV(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	file, err := h.exports.FeeCollectionCSV(c.Request.Context(), models.PeriodKey(strings.ToLower(c.Param("period"))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
