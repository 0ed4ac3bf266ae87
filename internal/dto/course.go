package dto

// CourseRequest is the create/update payload for course numbers.
type CourseRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
}
