package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edumanage-api/internal/models"
)

// ReportRepository aggregates attendance and performance records.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// AttendanceCounts counts attendance rows per student.
func (r *ReportRepository) AttendanceCounts(ctx context.Context) ([]models.AttendanceAggregate, error) {
	const query = `SELECT student_id, COUNT(*) AS count FROM attendance GROUP BY student_id ORDER BY student_id`
	rows := []models.AttendanceAggregate{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("attendance counts: %w", err)
	}
	return rows, nil
}

// PerformanceAverages averages grades per student and course.
func (r *ReportRepository) PerformanceAverages(ctx context.Context) ([]models.PerformanceAggregate, error) {
	const query = `SELECT student_id, course_id, ROUND(AVG(grade), 2)::float8 AS avg_grade
        FROM performance GROUP BY student_id, course_id ORDER BY student_id, course_id`
	rows := []models.PerformanceAggregate{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("performance averages: %w", err)
	}
	return rows, nil
}

type summaryRow struct {
	models.Student
	AttendanceJSON  []byte `db:"attendance"`
	PerformanceJSON []byte `db:"performance"`
}

// Summary returns every student with nested records in a single round trip.
func (r *ReportRepository) Summary(ctx context.Context) ([]models.StudentSummary, error) {
	query := `SELECT ` + studentColumns + `,
        COALESCE((SELECT json_agg(json_build_object('id', a.id, 'studentId', a.student_id, 'date', a.date,
            'present', a.present, 'createdAt', a.created_at) ORDER BY a.date) FROM attendance a WHERE a.student_id = s.id), '[]') AS attendance,
        COALESCE((SELECT json_agg(json_build_object('id', p.id, 'studentId', p.student_id, 'courseId', p.course_id,
            'grade', p.grade, 'recordedAt', p.recorded_at) ORDER BY p.recorded_at) FROM performance p WHERE p.student_id = s.id), '[]') AS performance
        FROM students s ORDER BY s.last_name, s.first_name`

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("summary report: %w", err)
	}

	result := make([]models.StudentSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.StudentSummary{Student: row.Student, Attendance: []models.Attendance{}, Performance: []models.Performance{}}
		if err := json.Unmarshal(row.AttendanceJSON, &summary.Attendance); err != nil {
			return nil, fmt.Errorf("decode attendance for student %d: %w", row.ID, err)
		}
		if err := json.Unmarshal(row.PerformanceJSON, &summary.Performance); err != nil {
			return nil, fmt.Errorf("decode performance for student %d: %w", row.ID, err)
		}
		result = append(result, summary)
	}
	return result, nil
}

// AttendanceRecords lists attendance rows narrowed by the filter.
func (r *ReportRepository) AttendanceRecords(ctx context.Context, filter models.ReportFilter) ([]models.Attendance, error) {
	where, args := reportConditions(filter, "a", "a.date")
	query := `SELECT a.id, a.student_id, a.date, a.present, a.created_at FROM attendance a JOIN students s ON s.id = a.student_id` +
		where + ` ORDER BY a.date, a.student_id`
	rows := []models.Attendance{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance records: %w", err)
	}
	return rows, nil
}

// PerformanceRecords lists performance rows narrowed by the filter.
func (r *ReportRepository) PerformanceRecords(ctx context.Context, filter models.ReportFilter) ([]models.Performance, error) {
	where, args := reportConditions(filter, "p", "p.recorded_at::date")
	if filter.CourseID != nil {
		clause := fmt.Sprintf("p.course_id = $%d", len(args)+1)
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, *filter.CourseID)
	}
	query := `SELECT p.id, p.student_id, p.course_id, p.grade::float8 AS grade, p.recorded_at FROM performance p JOIN students s ON s.id = p.student_id` +
		where + ` ORDER BY p.recorded_at, p.student_id`
	rows := []models.Performance{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("performance records: %w", err)
	}
	return rows, nil
}

func reportConditions(filter models.ReportFilter, alias, dateExpr string) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != nil {
		conditions = append(conditions, fmt.Sprintf("%s.student_id = $%d", alias, len(args)+1))
		args = append(args, *filter.StudentID)
	}
	if filter.GroupID != nil {
		conditions = append(conditions, fmt.Sprintf("s.group_id = $%d", len(args)+1))
		args = append(args, *filter.GroupID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", dateExpr, len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", dateExpr, len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// CreateAttendance records a presence mark. An unknown student surfaces as ErrForeignKey.
func (r *ReportRepository) CreateAttendance(ctx context.Context, record *models.Attendance) error {
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO attendance (student_id, date, present, created_at) VALUES (:student_id, :date, :present, :created_at) RETURNING id`
	id, err := insertReturningID(ctx, r.db, query, record)
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	record.ID = id
	return nil
}

// CreatePerformance records a grade. Unknown student or course ids surface as ErrForeignKey.
func (r *ReportRepository) CreatePerformance(ctx context.Context, record *models.Performance) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO performance (student_id, course_id, grade, recorded_at) VALUES (:student_id, :course_id, :grade, :recorded_at) RETURNING id`
	id, err := insertReturningID(ctx, r.db, query, record)
	if err != nil {
		return fmt.Errorf("create performance: %w", err)
	}
	record.ID = id
	return nil
}
