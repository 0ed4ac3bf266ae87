package models

import "time"

// Group is a cohort of students sharing a specialty and course level.
type Group struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialty      string    `db:"specialty" json:"specialty"`
	StartDate      Date      `db:"start_date" json:"startDate"`
	EndDate        Date      `db:"end_date" json:"endDate"`
	CourseNumberID int64     `db:"course_number_id" json:"courseNumberId"`
	TeacherID      *int64    `db:"teacher_id" json:"teacherId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// GroupDetail embeds the course name, curator and enrolled students.
type GroupDetail struct {
	Group
	CourseName  string    `db:"course_name" json:"courseName"`
	TeacherName *string   `db:"teacher_name" json:"teacherName,omitempty"`
	Students    []Student `db:"-" json:"students"`
}

// GroupFilter defines filter criteria for listing groups.
type GroupFilter struct {
	ListParams
	CourseNumberID *int64
	TeacherID      *int64
}
