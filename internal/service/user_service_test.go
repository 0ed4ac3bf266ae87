package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/internal/repository"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[int64]*models.User
	nextID     int64
	listFilter models.UserFilter
	revoked    []int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[int64]*models.User{}}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.listFilter = filter
	users := []models.User{}
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) emailTaken(email string, except int64) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func uniqueViolation(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrDuplicate, Constraint: constraint, Err: &pq.Error{Code: "23505", Constraint: constraint}}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.emailTaken(user.Email, 0) {
		return fmt.Errorf("create user: %w", uniqueViolation("users_email_lower_idx"))
	}
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	if m.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("update user: %w", uniqueViolation("users_email_lower_idx"))
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func TestUserServiceCreateAndGet(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    "Inspector@Example.com",
		FullName: "Dana Inspector",
		Role:     models.RoleInspector,
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "inspector@example.com", created.Email)
	assert.True(t, created.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")))

	fetched, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, fetched.Email)
	assert.Equal(t, models.RoleInspector, fetched.Role)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	req := dto.CreateUserRequest{Email: "a@example.com", FullName: "A", Role: models.RoleAdmin, Password: "secret1"}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Len(t, repo.users, 1)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{Email: "p@example.com", FullName: "P", Role: "PARENT", Password: "secret1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "role")
}

func TestUserServiceUpdateResetsPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	created, err := svc.Create(context.Background(), dto.CreateUserRequest{Email: "t@example.com", FullName: "T", Role: models.RoleTeacher, Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateUserRequest{
		Email:    "t@example.com",
		FullName: "Teacher T",
		Role:     models.RoleTeacher,
		Password: "another1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Teacher T", updated.FullName)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[created.ID].PasswordHash), []byte("another1")))
	assert.Equal(t, []int64{created.ID}, repo.revoked)
}

func TestUserServiceUpdateMissing(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Update(context.Background(), 42, dto.UpdateUserRequest{Email: "x@example.com", FullName: "X", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteNonexistentIsNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestUserServiceListPagination(t *testing.T) {
	repo := newMockUserRepo()
	repo.users[1] = &models.User{ID: 1, Email: "a@example.com"}
	repo.users[2] = &models.User{ID: 2, Email: "b@example.com"}
	svc := NewUserService(repo, nil, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{ListParams: models.ListParams{Page: 0, PageSize: 500}})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, models.MaxPageSize, pagination.Limit)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, models.MaxPageSize, repo.listFilter.PageSize)
}
