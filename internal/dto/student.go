package dto

import "github.com/noah-isme/edumanage-api/internal/models"

// StudentRequest is the create/update payload for students. It binds from JSON
// bodies and from multipart forms carrying a profile picture.
type StudentRequest struct {
	IIN        string       `json:"iin" form:"iin" validate:"required,len=12,numeric"`
	FirstName  string       `json:"firstName" form:"firstName" validate:"required,max=100"`
	LastName   string       `json:"lastName" form:"lastName" validate:"required,max=100"`
	MiddleName *string      `json:"middleName,omitempty" form:"middleName" validate:"omitempty,max=100"`
	BirthDate  *models.Date `json:"birthDate" form:"birthDate" validate:"required"`
	GroupID    *int64       `json:"groupId,omitempty" form:"groupId" validate:"omitempty,gt=0"`
	Phone      *string      `json:"phone,omitempty" form:"phone" validate:"omitempty,max=32"`
	Email      *string      `json:"email,omitempty" form:"email" validate:"omitempty,email"`
	Address    *string      `json:"address,omitempty" form:"address" validate:"omitempty,max=255"`
}
