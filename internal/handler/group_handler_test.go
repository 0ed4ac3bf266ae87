package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumanage-api/internal/dto"
	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
)

type groupServiceMock struct {
	filter    models.GroupFilter
	req       dto.GroupRequest
	member    dto.GroupMemberRequest
	groupID   int64
	studentID int64
	err       error
}

func (m *groupServiceMock) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, *models.Pagination, error) {
	m.filter = filter
	return []models.GroupDetail{}, &models.Pagination{Page: 1, Limit: 20}, m.err
}

func (m *groupServiceMock) Get(ctx context.Context, id int64) (*models.GroupDetail, error) {
	return &models.GroupDetail{Group: models.Group{ID: id}, Students: []models.Student{}}, m.err
}

func (m *groupServiceMock) Create(ctx context.Context, req dto.GroupRequest) (*models.GroupDetail, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.GroupDetail{Group: models.Group{ID: 1, Name: req.Name}}, nil
}

func (m *groupServiceMock) Update(ctx context.Context, id int64, req dto.GroupRequest) (*models.GroupDetail, error) {
	m.groupID, m.req = id, req
	return &models.GroupDetail{Group: models.Group{ID: id}}, m.err
}

func (m *groupServiceMock) Delete(ctx context.Context, id int64) error {
	m.groupID = id
	return m.err
}

func (m *groupServiceMock) AddStudent(ctx context.Context, groupID int64, req dto.GroupMemberRequest) (*models.GroupDetail, error) {
	m.groupID, m.member = groupID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.GroupDetail{Group: models.Group{ID: groupID}}, nil
}

func (m *groupServiceMock) RemoveStudent(ctx context.Context, groupID, studentID int64) error {
	m.groupID, m.studentID = groupID, studentID
	return m.err
}

func TestGroupHandlerCreateParsesDates(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	payload := []byte(`{"name":"IS-21","specialty":"Information systems","startDate":"01.09.2023","endDate":"2027-06-30T00:00:00Z","courseNumberId":1}`)
	c, w := newGinContext(http.MethodPost, "/groups", payload)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "2023-09-01", svc.req.StartDate.String())
	require.Equal(t, "2027-06-30", svc.req.EndDate.String())
}

func TestGroupHandlerCreateRejectsUnparsableDate(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	payload := []byte(`{"name":"IS-21","specialty":"IS","startDate":"2023/09/01","endDate":"2027-06-30","courseNumberId":1}`)
	c, w := newGinContext(http.MethodPost, "/groups", payload)
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, svc.req.Name)
}

func TestGroupHandlerListFilters(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	c, w := newGinContext(http.MethodGet, "/groups?courseNumberId=2&teacherId=8", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(2), *svc.filter.CourseNumberID)
	require.Equal(t, int64(8), *svc.filter.TeacherID)
}

func TestGroupHandlerAddStudent(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	c, w := newGinContext(http.MethodPost, "/groups/4/students", mustJSON(t, dto.GroupMemberRequest{StudentID: 12}))
	withParams(c, "id", "4")
	h.AddStudent(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(4), svc.groupID)
	require.Equal(t, int64(12), svc.member.StudentID)
}

func TestGroupHandlerAddStudentAlreadyAssigned(t *testing.T) {
	h := NewGroupHandler(&groupServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "student already belongs to a group")})

	c, w := newGinContext(http.MethodPost, "/groups/4/students", mustJSON(t, dto.GroupMemberRequest{StudentID: 12}))
	withParams(c, "id", "4")
	h.AddStudent(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, appErrors.ErrConflict.Code, decode(t, w).Error.Code)
}

func TestGroupHandlerRemoveStudent(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	c, w := newGinContext(http.MethodDelete, "/groups/4/students/12", nil)
	withParams(c, "id", "4", "studentId", "12")
	h.RemoveStudent(c)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, int64(4), svc.groupID)
	require.Equal(t, int64(12), svc.studentID)
}

func TestGroupHandlerRemoveStudentInvalidStudentID(t *testing.T) {
	svc := &groupServiceMock{}
	h := NewGroupHandler(svc)

	c, w := newGinContext(http.MethodDelete, "/groups/4/students/x", nil)
	withParams(c, "id", "4", "studentId", "x")
	h.RemoveStudent(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decode(t, w).Error.Details, "studentId")
	require.Zero(t, svc.groupID)
}
