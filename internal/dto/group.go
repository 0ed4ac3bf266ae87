package dto

import "github.com/noah-isme/edumanage-api/internal/models"

// GroupRequest is the create/update payload for groups.
type GroupRequest struct {
	Name           string       `json:"name" validate:"required,max=100"`
	Specialty      string       `json:"specialty" validate:"required,max=150"`
	StartDate      *models.Date `json:"startDate" validate:"required"`
	EndDate        *models.Date `json:"endDate" validate:"required"`
	CourseNumberID int64        `json:"courseNumberId" validate:"required,gt=0"`
	TeacherID      *int64       `json:"teacherId,omitempty" validate:"omitempty,gt=0"`
}

// GroupMemberRequest adds a student to a group.
type GroupMemberRequest struct {
	StudentID int64 `json:"studentId" validate:"required,gt=0"`
}
