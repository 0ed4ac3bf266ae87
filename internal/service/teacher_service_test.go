package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[int64]*models.TeacherDetail
	users    map[string]*models.User
	nextID   int64
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: map[int64]*models.TeacherDetail{}, users: map[string]*models.User{}}
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	out := []models.TeacherDetail{}
	for _, t := range m.teachers {
		if filter.Department != "" && t.Department != filter.Department {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (m *mockTeacherRepo) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	if _, ok := m.users[user.Email]; ok {
		return fmt.Errorf("create user: %w", uniqueViolation("users_email_lower_idx"))
	}
	m.nextID++
	user.ID = m.nextID * 10
	teacher.ID = m.nextID
	teacher.UserID = user.ID
	m.users[user.Email] = user
	m.teachers[teacher.ID] = &models.TeacherDetail{Teacher: *teacher, Email: user.Email}
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	existing, ok := m.teachers[teacher.ID]
	if !ok {
		return sql.ErrNoRows
	}
	teacher.UserID = existing.UserID
	existing.Teacher = *teacher
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id int64) error {
	t, ok := m.teachers[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.users, t.Email)
	delete(m.teachers, id)
	return nil
}

type stubGroupLister struct {
	byTeacher map[int64][]models.Group
}

func (s stubGroupLister) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Group, error) {
	groups := s.byTeacher[teacherID]
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

func teacherRequest(email string) dto.CreateTeacherRequest {
	return dto.CreateTeacherRequest{
		Email:      email,
		Password:   "secret1",
		FirstName:  "Marat",
		LastName:   "Zhunusov",
		Department: "Mathematics",
	}
}

func TestTeacherServiceCreatesUserAndProfile(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, stubGroupLister{}, nil, nil)

	created, err := svc.Create(context.Background(), teacherRequest("Marat@School.kz"))
	require.NoError(t, err)
	assert.Equal(t, "marat@school.kz", created.Email)
	assert.NotNil(t, created.Subjects)
	assert.Empty(t, created.Subjects)
	assert.Empty(t, created.Groups)

	user := repo.users["marat@school.kz"]
	require.NotNil(t, user)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.Equal(t, "Marat Zhunusov", user.FullName)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestTeacherServiceDuplicateEmail(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, stubGroupLister{}, nil, nil)

	_, err := svc.Create(context.Background(), teacherRequest("marat@school.kz"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), teacherRequest("marat@school.kz"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.teachers, 1)
}

func TestTeacherServiceGetEmbedsGroups(t *testing.T) {
	repo := newMockTeacherRepo()
	groups := stubGroupLister{byTeacher: map[int64][]models.Group{1: {{ID: 4, Name: "IT-21"}}}}
	svc := NewTeacherService(repo, groups, nil, nil)

	req := teacherRequest("marat@school.kz")
	req.Subjects = []string{" Algebra ", "", "Geometry"}
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Algebra", "Geometry"}, []string(created.Subjects))
	require.Len(t, created.Groups, 1)
	assert.Equal(t, "IT-21", created.Groups[0].Name)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, stubGroupLister{}, nil, nil)
	created, err := svc.Create(context.Background(), teacherRequest("marat@school.kz"))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateTeacherRequest{
		FirstName: "Marat", LastName: "Zhunusov", Department: "Physics", Subjects: []string{"Mechanics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Physics", updated.Department)
	assert.Equal(t, created.UserID, updated.UserID)

	_, err = svc.Update(context.Background(), 77, dto.UpdateTeacherRequest{FirstName: "A", LastName: "B", Department: "C"})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, stubGroupLister{}, nil, nil)
	created, err := svc.Create(context.Background(), teacherRequest("marat@school.kz"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Empty(t, repo.users)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestTeacherServiceValidation(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), stubGroupLister{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateTeacherRequest{Email: "bad", Password: "1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "password")
	assert.Contains(t, appErr.Details, "department")
}
