package dto

import "github.com/noah-isme/edumanage-api/internal/models"

// GenerateReportRequest captures POST /reports/generate payload.
type GenerateReportRequest struct {
	Type    models.ReportType   `json:"type" validate:"required"`
	Filters models.ReportFilter `json:"filters"`
}

// GeneratedReport is the response of a generate call.
type GeneratedReport struct {
	Type    models.ReportType   `json:"type"`
	Filters models.ReportFilter `json:"filters"`
	Rows    interface{}         `json:"rows"`
	Count   int                 `json:"count"`
}

// RecordAttendanceRequest stores one attendance mark.
type RecordAttendanceRequest struct {
	StudentID int64        `json:"studentId" validate:"required,gt=0"`
	Date      *models.Date `json:"date" validate:"required"`
	Present   *bool        `json:"present" validate:"required"`
}

// RecordPerformanceRequest stores one grade.
type RecordPerformanceRequest struct {
	StudentID int64    `json:"studentId" validate:"required,gt=0"`
	CourseID  int64    `json:"courseId" validate:"required,gt=0"`
	Grade     *float64 `json:"grade" validate:"required,gte=0,lte=100"`
}
