package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher is the staff profile linked one-to-one with a TEACHER user.
type Teacher struct {
	ID         int64          `db:"id" json:"id"`
	UserID     int64          `db:"user_id" json:"userId"`
	FirstName  string         `db:"first_name" json:"firstName"`
	LastName   string         `db:"last_name" json:"lastName"`
	MiddleName *string        `db:"middle_name" json:"middleName,omitempty"`
	Department string         `db:"department" json:"department"`
	Subjects   pq.StringArray `db:"subjects" json:"subjects"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// FullName joins the name parts for display and the linked user row.
func (t Teacher) FullName() string {
	name := t.FirstName + " " + t.LastName
	if t.MiddleName != nil && *t.MiddleName != "" {
		name += " " + *t.MiddleName
	}
	return name
}

// TeacherDetail carries the login email and the groups the teacher curates.
type TeacherDetail struct {
	Teacher
	Email  string  `db:"email" json:"email"`
	Groups []Group `db:"-" json:"groups"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	ListParams
	Department string
}
