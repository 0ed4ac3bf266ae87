package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/internal/service"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/response"
)

type reportService interface {
	Attendance(ctx context.Context) ([]models.AttendanceAggregate, bool, error)
	Performance(ctx context.Context) ([]models.PerformanceAggregate, bool, error)
	Summary(ctx context.Context) ([]models.StudentSummary, bool, error)
	Generate(ctx context.Context, req dto.GenerateReportRequest) (*dto.GeneratedReport, error)
	Export(ctx context.Context, reportType models.ReportType, format string) (*service.ExportFile, error)
	RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest) (*models.Attendance, error)
	RecordPerformance(ctx context.Context, req dto.RecordPerformanceRequest) (*models.Performance, error)
}

// ReportHandler exposes report aggregates, ad-hoc reports and exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func cacheMeta(hit bool) map[string]interface{} {
	return map[string]interface{}{"cached": hit}
}

// Attendance godoc
// @Summary Attendance counts per student
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	rows, hit, err := h.service.Attendance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, cacheMeta(hit))
}

// Performance godoc
// @Summary Average grade per student and course
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	rows, hit, err := h.service.Performance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, cacheMeta(hit))
}

// Summary godoc
// @Summary Students with nested attendance and performance
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	rows, hit, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, cacheMeta(hit))
}

// Generate godoc
// @Summary Generate a filtered report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.GenerateReportRequest true "Report request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if !bindJSON(c, &req, "invalid report request") {
		return
	}
	report, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download an aggregate report
// @Tags Reports
// @Produce text/csv,application/pdf
// @Param type query string true "attendance or performance"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	reportType := models.ReportType(strings.ToLower(strings.TrimSpace(c.Query("type"))))
	if !reportType.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report type").
			WithDetails(map[string]string{"type": "type must be one of [attendance performance]"}))
		return
	}
	file, err := h.service.Export(c.Request.Context(), reportType, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// RecordAttendance godoc
// @Summary Record an attendance mark
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendanceRequest true "Attendance"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/attendance [post]
func (h *ReportHandler) RecordAttendance(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.service.RecordAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// RecordPerformance godoc
// @Summary Record a grade
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.RecordPerformanceRequest true "Grade"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/performance [post]
func (h *ReportHandler) RecordPerformance(c *gin.Context) {
	var req dto.RecordPerformanceRequest
	if !bindJSON(c, &req, "invalid performance payload") {
		return
	}
	record, err := h.service.RecordPerformance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
