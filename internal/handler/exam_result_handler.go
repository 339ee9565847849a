package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/umarmf343/vea-2025-sub003/internal/dto"
	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/service"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
	"github.com/umarmf343/vea-2025-sub003/pkg/response"
)

type examLedger interface {
	CreateSchedule(ctx context.Context, req dto.CreateExamScheduleRequest) (*models.ExamSchedule, error)
	GetSchedule(ctx context.Context, examID string) (*models.ExamSchedule, error)
	ListResults(ctx context.Context, examID string) ([]models.ExamResultRecord, error)
	SaveResults(ctx context.Context, examID string, inputs []models.ExamResultInput, opts service.SaveResultsOptions) ([]models.ExamResultRecord, error)
	PublishResults(ctx context.Context, examID string) ([]models.ExamResultRecord, error)
	DeleteSchedule(ctx context.Context, examID string) error
}

// ExamResultHandler exposes exam schedules and score entry.
type ExamResultHandler struct {
	ledger examLedger
}

// NewExamResultHandler constructs the handler.
func NewExamResultHandler(ledger examLedger) *ExamResultHandler {
	return &ExamResultHandler{ledger: ledger}
}

// CreateSchedule godoc
// @Summary Create an exam schedule
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body dto.CreateExamScheduleRequest true "Exam schedule"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamResultHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateExamScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid exam schedule payload"))
		return
	}
	schedule, err := h.ledger.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// ListResults godoc
// @Summary List the results of an exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/results [get]
func (h *ExamResultHandler) ListResults(c *gin.Context) {
	examID := c.Param("id")
	schedule, err := h.ledger.GetSchedule(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.ledger.ListResults(c.Request.Context(), examID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExamResultsResponse{Exam: schedule, Results: results}, map[string]interface{}{"count": len(results)})
}

// SaveResults godoc
// @Summary Upsert score rows for an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param autoPublish query bool false "Publish the saved rows"
// @Param payload body dto.SaveExamResultsRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/results [post]
func (h *ExamResultHandler) SaveResults(c *gin.Context) {
	autoPublish, err := queryBool(c, "autoPublish")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SaveExamResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid results payload"))
		return
	}
	saved, err := h.ledger.SaveResults(c.Request.Context(), c.Param("id"), req.Results, service.SaveResultsOptions{AutoPublish: autoPublish})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, map[string]interface{}{"count": len(saved)})
}

// PublishResults godoc
// @Summary Publish every result of an exam
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/publish [post]
func (h *ExamResultHandler) PublishResults(c *gin.Context) {
	published, err := h.ledger.PublishResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, published, map[string]interface{}{"count": len(published)})
}

// DeleteSchedule godoc
// @Summary Delete an exam with its results
// @Tags Exams
// @Param id path string true "Exam ID"
// @Success 204
// @Router /exams/{id} [delete]
func (h *ExamResultHandler) DeleteSchedule(c *gin.Context) {
	if err := h.ledger.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
