package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/internal/repository"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/validation"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseNumber, int, error)
	FindByID(ctx context.Context, id int64) (*models.CourseNumber, error)
	Create(ctx context.Context, course *models.CourseNumber) error
	Update(ctx context.Context, course *models.CourseNumber) error
	Delete(ctx context.Context, id int64) error
}

// CourseService manages course numbers (study years).
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns course numbers with pagination.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseNumber, *models.Pagination, error) {
	filter.Normalize()
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, models.NewPagination(filter.ListParams, total), nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.CourseNumber, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to get course")
	}
	return course, nil
}

// Create adds a course.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.CourseNumber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid course payload")
	}
	course := &models.CourseNumber{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, persistenceError(err, "course", "create", "course name already exists", "")
	}
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id int64, req dto.CourseRequest) (*models.CourseNumber, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid course payload")
	}
	course := &models.CourseNumber{ID: id, Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, persistenceError(err, "course", "update", "course name already exists", "")
	}
	return s.Get(ctx, id)
}

// Delete removes a course that no group or grade references.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "course is still referenced by groups or grades")
		}
		return persistenceError(err, "course", "delete", "", "")
	}
	return nil
}
