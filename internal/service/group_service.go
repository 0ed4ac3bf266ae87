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

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.GroupDetail, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int64) error
}

type groupMemberRepository interface {
	ListByGroup(ctx context.Context, groupID int64) ([]models.Student, error)
	Exists(ctx context.Context, id int64) (bool, error)
	AssignGroup(ctx context.Context, studentID, groupID int64) (bool, error)
	RemoveFromGroup(ctx context.Context, studentID, groupID int64) (bool, error)
}

const groupReferenceMsg = "course number or teacher does not exist"

// GroupService manages groups and their membership.
type GroupService struct {
	repo      groupRepository
	members   groupMemberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(repo groupRepository, members groupMemberRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, members: members, validator: validate, logger: logger}
}

// List groups with pagination.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, *models.Pagination, error) {
	filter.Normalize()
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list groups")
	}
	return groups, models.NewPagination(filter.ListParams, total), nil
}

// Get returns a group with its students.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.GroupDetail, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Internal(err, "failed to get group")
	}
	students, err := s.members.ListByGroup(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load group students")
	}
	group.Students = students
	return group, nil
}

// Create adds a new group.
func (s *GroupService) Create(ctx context.Context, req dto.GroupRequest) (*models.GroupDetail, error) {
	group, err := s.buildGroup(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, persistenceError(err, "group", "create", "", groupReferenceMsg)
	}
	return s.Get(ctx, group.ID)
}

// Update modifies a group.
func (s *GroupService) Update(ctx context.Context, id int64, req dto.GroupRequest) (*models.GroupDetail, error) {
	group, err := s.buildGroup(req)
	if err != nil {
		return nil, err
	}
	group.ID = id
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, persistenceError(err, "group", "update", "", groupReferenceMsg)
	}
	return s.Get(ctx, id)
}

// Delete removes a group; its students become unassigned.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return persistenceError(err, "group", "delete", "", "")
	}
	return nil
}

// AddStudent assigns a student that currently has no group. The store applies
// the assignment with a single conditional update.
func (s *GroupService) AddStudent(ctx context.Context, groupID int64, req dto.GroupMemberRequest) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid group member payload")
	}

	exists, err := s.repo.Exists(ctx, groupID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check group")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}

	assigned, err := s.members.AssignGroup(ctx, req.StudentID, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Internal(err, "failed to assign student")
	}
	if !assigned {
		return nil, s.assignmentRejected(ctx, req.StudentID)
	}
	return s.Get(ctx, groupID)
}

func (s *GroupService) assignmentRejected(ctx context.Context, studentID int64) error {
	exists, err := s.members.Exists(ctx, studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to check student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return appErrors.Clone(appErrors.ErrConflict, "student already belongs to a group")
}

// RemoveStudent detaches a student from the group.
func (s *GroupService) RemoveStudent(ctx context.Context, groupID, studentID int64) error {
	removed, err := s.members.RemoveFromGroup(ctx, studentID, groupID)
	if err != nil {
		return appErrors.Internal(err, "failed to remove student from group")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not a member of this group")
	}
	return nil
}

func (s *GroupService) buildGroup(req dto.GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Error(err, "invalid group payload")
	}
	if !req.StartDate.Before(req.EndDate.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid group payload").
			WithDetails(map[string]string{"startDate": "startDate must be before endDate"})
	}
	return &models.Group{
		Name:           strings.TrimSpace(req.Name),
		Specialty:      strings.TrimSpace(req.Specialty),
		StartDate:      *req.StartDate,
		EndDate:        *req.EndDate,
		CourseNumberID: req.CourseNumberID,
		TeacherID:      req.TeacherID,
	}, nil
}
