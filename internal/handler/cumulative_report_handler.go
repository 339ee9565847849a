package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/service"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
	"github.com/umarmf343/vea-2025-sub003/pkg/response"
)

type cumulativeReports interface {
	Report(ctx context.Context, studentID, session string) (*models.StudentCumulativeReportRecord, error)
	ListReports(ctx context.Context, session string) ([]models.StudentCumulativeReportRecord, error)
}

type reportCardExports interface {
	ReportCardPDF(ctx context.Context, studentID, session string) (*service.ExportFile, error)
}

// CumulativeReportHandler exposes cumulative report cards.
type CumulativeReportHandler struct {
	reports cumulativeReports
	exports reportCardExports
}

// NewCumulativeReportHandler constructs the handler.
func NewCumulativeReportHandler(reports cumulativeReports, exports reportCardExports) *CumulativeReportHandler {
	return &CumulativeReportHandler{reports: reports, exports: exports}
}

// List godoc
// @Summary List cumulative reports
// @Tags Reports
// @Produce json
// @Param session query string false "Academic session"
// @Success 200 {object} response.Envelope
// @Router /reports/cumulative [get]
func (h *CumulativeReportHandler) List(c *gin.Context) {
	reports, err := h.reports.ListReports(c.Request.Context(), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, map[string]interface{}{"count": len(reports)})
}

// Get godoc
// @Summary Cumulative report of one student
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Router /reports/cumulative/{studentId} [get]
func (h *CumulativeReportHandler) Get(c *gin.Context) {
	session, err := requiredQuery(c, "session")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.Report(c.Request.Context(), c.Param("studentId"), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// PDF godoc
// @Summary Download a cumulative report card
// @Tags Reports
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param session query string true "Academic session"
// @Router /reports/cumulative/{studentId}/pdf [get]
func (h *CumulativeReportHandler) PDF(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	session, err := requiredQuery(c, "session")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.ReportCardPDF(c.Request.Context(), c.Param("studentId"), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
