package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/storage"
	"github.com/noah-isme/edumanage-api/pkg/validation"
)

const profilePictureFolder = "students"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// FileStore persists uploaded files and returns their public path.
type FileStore interface {
	Save(folder string, r io.Reader) (string, error)
	Delete(publicPath string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	files     FileStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, files FileStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, files: files, metrics: metrics, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	filter.Normalize()
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, models.NewPagination(filter.ListParams, total), nil
}

// Get returns student detail by ID.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to get student")
	}
	return student, nil
}

// Create registers a new student. picture may be nil.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest, picture io.Reader) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid student payload")
	}

	student := &models.Student{}
	applyStudentRequest(student, req)

	if picture != nil {
		path, err := s.storePicture(picture)
		if err != nil {
			return nil, err
		}
		student.ProfilePicture = &path
	}

	if err := s.repo.Create(ctx, student); err != nil {
		s.discardPicture(student.ProfilePicture)
		return nil, persistenceError(err, "student", "create", "iin already used", "group does not exist")
	}
	return s.Get(ctx, student.ID)
}

// Update replaces the student's profile fields. A new picture replaces the stored one.
// groupId may only repeat the current group; moves go through GroupService.
func (s *StudentService) Update(ctx context.Context, id int64, req dto.StudentRequest, picture io.Reader) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid student payload")
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.GroupID != nil && !sameGroup(existing.GroupID, *req.GroupID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "group membership is changed through /groups/{id}/students").
			WithDetails(map[string]string{"groupId": "student group cannot be changed here"})
	}
	student := existing.Student
	previousPicture := student.ProfilePicture
	currentGroup := student.GroupID
	applyStudentRequest(&student, req)
	student.GroupID = currentGroup

	if picture != nil {
		path, err := s.storePicture(picture)
		if err != nil {
			return nil, err
		}
		student.ProfilePicture = &path
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		if student.ProfilePicture != previousPicture {
			s.discardPicture(student.ProfilePicture)
		}
		return nil, persistenceError(err, "student", "update", "iin already used", "group does not exist")
	}
	if student.ProfilePicture != previousPicture {
		s.discardPicture(previousPicture)
	}
	return s.Get(ctx, id)
}

// Delete removes the student with its attendance and performance history.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistenceError(err, "student", "delete", "", "")
	}
	s.discardPicture(existing.ProfilePicture)
	return nil
}

func applyStudentRequest(student *models.Student, req dto.StudentRequest) {
	student.IIN = strings.TrimSpace(req.IIN)
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.LastName = strings.TrimSpace(req.LastName)
	student.MiddleName = req.MiddleName
	if req.BirthDate != nil {
		student.BirthDate = *req.BirthDate
	}
	student.GroupID = req.GroupID
	student.Phone = req.Phone
	student.Email = req.Email
	student.Address = req.Address
}

func sameGroup(current *int64, requested int64) bool {
	return current != nil && *current == requested
}

func (s *StudentService) storePicture(r io.Reader) (string, error) {
	if s.files == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "profile picture uploads are disabled")
	}
	path, err := s.files.Save(profilePictureFolder, r)
	switch {
	case err == nil:
		s.metrics.RecordUpload("stored")
		return path, nil
	case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupportedType):
		s.metrics.RecordUpload("rejected")
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid profile picture").
			WithDetails(map[string]string{"profilePicture": err.Error()})
	default:
		s.metrics.RecordUpload("failed")
		return "", appErrors.Internal(err, "failed to store profile picture")
	}
}

func (s *StudentService) discardPicture(path *string) {
	if path == nil || s.files == nil {
		return
	}
	if err := s.files.Delete(*path); err != nil {
		s.logger.Warn("failed to delete profile picture", zap.String("path", *path), zap.Error(err))
	}
}
