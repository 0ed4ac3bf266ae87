package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/export"
	"github.com/noah-isme/edumanage-api/pkg/validation"
)

const reportCachePrefix = "reports"

// ReportRepository describes the persistence layer required by ReportService.
type ReportRepository interface {
	AttendanceCounts(ctx context.Context) ([]models.AttendanceAggregate, error)
	PerformanceAverages(ctx context.Context) ([]models.PerformanceAggregate, error)
	Summary(ctx context.Context) ([]models.StudentSummary, error)
	AttendanceRecords(ctx context.Context, filter models.ReportFilter) ([]models.Attendance, error)
	PerformanceRecords(ctx context.Context, filter models.ReportFilter) ([]models.Performance, error)
	CreateAttendance(ctx context.Context, record *models.Attendance) error
	CreatePerformance(ctx context.Context, record *models.Performance) error
}

// ExportFile is a rendered report ready to be served as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService serves cached report aggregates, ad-hoc record reports and exports.
type ReportService struct {
	repo      ReportRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a report service. cache may be nil.
func NewReportService(repo ReportRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// cachedQuery reads key from the cache or loads and stores it. The boolean reports a cache hit.
func cachedQuery[T any](ctx context.Context, s *ReportService, name string, load func(context.Context) (T, error)) (T, bool, error) {
	key := CacheKey(reportCachePrefix, name)
	var cached T
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	result, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, appErrors.Internal(err, "failed to build "+name+" report")
	}
	s.metrics.ObserveDBQuery("report_"+name, time.Since(start))
	s.cache.Set(ctx, key, result, 0)
	return result, false, nil
}

// Attendance returns the number of attendance rows per student.
func (s *ReportService) Attendance(ctx context.Context) ([]models.AttendanceAggregate, bool, error) {
	return cachedQuery(ctx, s, "attendance", s.repo.AttendanceCounts)
}

// Performance returns average grades per student and course.
func (s *ReportService) Performance(ctx context.Context) ([]models.PerformanceAggregate, bool, error) {
	return cachedQuery(ctx, s, "performance", s.repo.PerformanceAverages)
}

// Summary returns every student with nested attendance and performance records.
func (s *ReportService) Summary(ctx context.Context) ([]models.StudentSummary, bool, error) {
	return cachedQuery(ctx, s, "summary", s.repo.Summary)
}

// Generate returns the raw records of the requested type narrowed by the filters.
func (s *ReportService) Generate(ctx context.Context, req dto.GenerateReportRequest) (*dto.GeneratedReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid report request")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid report request").
			WithDetails(map[string]string{"type": "type must be one of [attendance performance]"})
	}
	f := req.Filters
	if f.From != nil && f.To != nil && f.From.After(f.To.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid report request").
			WithDetails(map[string]string{"from": "from must not be after to"})
	}

	start := time.Now()
	report := &dto.GeneratedReport{Type: req.Type, Filters: f}
	switch req.Type {
	case models.ReportTypeAttendance:
		rows, err := s.repo.AttendanceRecords(ctx, f)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate attendance report")
		}
		report.Rows, report.Count = rows, len(rows)
	case models.ReportTypePerformance:
		rows, err := s.repo.PerformanceRecords(ctx, f)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to generate performance report")
		}
		report.Rows, report.Count = rows, len(rows)
	}
	s.metrics.ObserveDBQuery("report_generate_"+string(req.Type), time.Since(start))
	return report, nil
}

// Export renders an aggregate report as CSV or PDF.
func (s *ReportService) Export(ctx context.Context, reportType models.ReportType, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	var dataset export.Dataset
	switch reportType {
	case models.ReportTypeAttendance:
		rows, _, err := s.Attendance(ctx)
		if err != nil {
			return nil, err
		}
		dataset = attendanceDataset(rows)
	case models.ReportTypePerformance:
		rows, _, err := s.Performance(ctx)
		if err != nil {
			return nil, err
		}
		dataset = performanceDataset(rows)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}

	data, err := export.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	s.metrics.RecordExport(string(reportType), string(format))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-report-%s.%s", reportType, s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// RecordAttendance stores one attendance mark and drops cached aggregates.
func (s *ReportService) RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid attendance payload")
	}
	record := &models.Attendance{StudentID: req.StudentID, Date: *req.Date, Present: *req.Present}
	if err := s.repo.CreateAttendance(ctx, record); err != nil {
		return nil, persistenceError(err, "attendance", "record", "", "student does not exist")
	}
	s.invalidate(ctx)
	return record, nil
}

// RecordPerformance stores one grade and drops cached aggregates.
func (s *ReportService) RecordPerformance(ctx context.Context, req dto.RecordPerformanceRequest) (*models.Performance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid performance payload")
	}
	record := &models.Performance{StudentID: req.StudentID, CourseID: req.CourseID, Grade: *req.Grade, RecordedAt: s.now().UTC()}
	if err := s.repo.CreatePerformance(ctx, record); err != nil {
		return nil, persistenceError(err, "performance", "record", "", "student or course does not exist")
	}
	s.invalidate(ctx)
	return record, nil
}

func (s *ReportService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, reportCachePrefix+":*")
}

func attendanceDataset(rows []models.AttendanceAggregate) export.Dataset {
	data := export.Dataset{Title: "Attendance report", Headers: []string{"student_id", "count"}}
	for _, row := range rows {
		data.Rows = append(data.Rows, []string{strconv.FormatInt(row.StudentID, 10), strconv.Itoa(row.Count)})
	}
	return data
}

func performanceDataset(rows []models.PerformanceAggregate) export.Dataset {
	data := export.Dataset{Title: "Performance report", Headers: []string{"student_id", "course_id", "avg_grade"}}
	for _, row := range rows {
		data.Rows = append(data.Rows, []string{
			strconv.FormatInt(row.StudentID, 10),
			strconv.FormatInt(row.CourseID, 10),
			strconv.FormatFloat(row.AvgGrade, 'f', 2, 64),
		})
	}
	return data
}
