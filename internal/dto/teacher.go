package dto

// CreateTeacherRequest creates a teacher together with its login account.
type CreateTeacherRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	FirstName  string   `json:"firstName" validate:"required,max=100"`
	LastName   string   `json:"lastName" validate:"required,max=100"`
	MiddleName *string  `json:"middleName,omitempty" validate:"omitempty,max=100"`
	Department string   `json:"department" validate:"required,max=150"`
	Subjects   []string `json:"subjects" validate:"omitempty,dive,max=100"`
}

// UpdateTeacherRequest updates the teacher profile. Credentials are managed through /users.
type UpdateTeacherRequest struct {
	FirstName  string   `json:"firstName" validate:"required,max=100"`
	LastName   string   `json:"lastName" validate:"required,max=100"`
	MiddleName *string  `json:"middleName,omitempty" validate:"omitempty,max=100"`
	Department string   `json:"department" validate:"required,max=150"`
	Subjects   []string `json:"subjects" validate:"omitempty,dive,max=100"`
}
