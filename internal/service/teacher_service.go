package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/validation"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error)
	CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) error
}

type teacherGroupLister interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Group, error)
}

// TeacherService manages teacher profiles and their login accounts.
type TeacherService struct {
	repo      teacherRepository
	groups    teacherGroupLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, groups teacherGroupLister, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, groups: groups, validator: validate, logger: logger}
}

// List teachers with pagination.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, *models.Pagination, error) {
	filter.Normalize()
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, models.NewPagination(filter.ListParams, total), nil
}

// Get returns a teacher with the groups they curate.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Internal(err, "failed to get teacher")
	}
	groups, err := s.groups.ListByTeacher(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher groups")
	}
	teacher.Groups = groups
	return teacher, nil
}

// Create registers a TEACHER account and its profile in one transaction.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid teacher payload")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	teacher := &models.Teacher{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		MiddleName: req.MiddleName,
		Department: strings.TrimSpace(req.Department),
		Subjects:   subjects(req.Subjects),
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     teacher.FullName(),
		Role:         models.RoleTeacher,
		Active:       true,
	}

	if err := s.repo.CreateWithUser(ctx, user, teacher); err != nil {
		return nil, persistenceError(err, "teacher", "create", "email already exists", "")
	}
	return s.Get(ctx, teacher.ID)
}

// Update modifies the teacher profile.
func (s *TeacherService) Update(ctx context.Context, id int64, req dto.UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		ID:         id,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		MiddleName: req.MiddleName,
		Department: strings.TrimSpace(req.Department),
		Subjects:   subjects(req.Subjects),
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, persistenceError(err, "teacher", "update", "", "")
	}
	return s.Get(ctx, id)
}

// Delete removes the teacher and its user account. Curated groups keep existing without a teacher.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistenceError(err, "teacher", "delete", "", "")
	}
	return nil
}

// subjects normalises the list; the column is NOT NULL so nil becomes empty.
func subjects(in []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, subject := range in {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
