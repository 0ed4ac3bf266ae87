package models

import "time"

// CourseNumber is a labelled year or level referenced by groups.
type CourseNumber struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	ListParams
}
