package models

import "time"

// Student represents a learner identified by a unique IIN.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	IIN            string    `db:"iin" json:"iin"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	MiddleName     *string   `db:"middle_name" json:"middleName,omitempty"`
	BirthDate      Date      `db:"birth_date" json:"birthDate"`
	GroupID        *int64    `db:"group_id" json:"groupId"`
	ProfilePicture *string   `db:"profile_picture" json:"profilePicture,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Address        *string   `db:"address" json:"address,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentDetail adds the name of the student's group.
type StudentDetail struct {
	Student
	GroupName *string `db:"group_name" json:"groupName,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ListParams
	GroupID *int64
}
