package models

import "time"

// Attendance is one presence mark for a student on a day.
type Attendance struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"studentId"`
	Date      Date      `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Performance is one grade a student received for a course.
type Performance struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"studentId"`
	CourseID   int64     `db:"course_id" json:"courseId"`
	Grade      float64   `db:"grade" json:"grade"`
	RecordedAt time.Time `db:"recorded_at" json:"recordedAt"`
}

// AttendanceAggregate counts attendance rows per student.
type AttendanceAggregate struct {
	StudentID int64 `db:"student_id" json:"studentId"`
	Count     int   `db:"count" json:"count"`
}

// PerformanceAggregate averages grades per student and course.
type PerformanceAggregate struct {
	StudentID int64   `db:"student_id" json:"studentId"`
	CourseID  int64   `db:"course_id" json:"courseId"`
	AvgGrade  float64 `db:"avg_grade" json:"avgGrade"`
}

// StudentSummary nests a student's attendance and performance records.
type StudentSummary struct {
	Student
	Attendance  []Attendance  `json:"attendance"`
	Performance []Performance `json:"performance"`
}

// ReportType selects the record set produced by generate and export.
type ReportType string

const (
	ReportTypeAttendance  ReportType = "attendance"
	ReportTypePerformance ReportType = "performance"
)

// Valid reports whether t names a known report.
func (t ReportType) Valid() bool {
	return t == ReportTypeAttendance || t == ReportTypePerformance
}

// ReportFilter narrows generated reports. Nil fields are ignored.
type ReportFilter struct {
	StudentID *int64 `json:"studentId,omitempty"`
	CourseID  *int64 `json:"courseId,omitempty"`
	GroupID   *int64 `json:"groupId,omitempty"`
	From      *Date  `json:"from,omitempty"`
	To        *Date  `json:"to,omitempty"`
}
