package dto

import "github.com/noah-isme/edumanage-api/internal/models"

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"fullName" validate:"required,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER INSPECTOR"`
	Active   *bool           `json:"active"`
	Password string          `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest payload for updating users. An empty password keeps the current one.
type UpdateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"fullName" validate:"required,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER INSPECTOR"`
	Active   *bool           `json:"active"`
	Password string          `json:"password,omitempty" validate:"omitempty,min=6"`
}
