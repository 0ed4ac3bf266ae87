package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumanage-api/internal/handler"
	"github.com/noah-isme/edumanage-api/internal/models"
	"github.com/noah-isme/edumanage-api/internal/service"
	"github.com/noah-isme/edumanage-api/pkg/config"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type memoryCourses struct {
	mu      sync.Mutex
	courses map[int64]*models.CourseNumber
}

func (m *memoryCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseNumber, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CourseNumber{}
	for _, c := range m.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memoryCourses) FindByID(ctx context.Context, id int64) (*models.CourseNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *memoryCourses) Create(ctx context.Context, course *models.CourseNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	course.ID = int64(len(m.courses) + 1)
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *memoryCourses) Update(ctx context.Context, course *models.CourseNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *memoryCourses) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, id)
	return nil
}

type memoryStudents struct {
	mu       sync.Mutex
	students map[int64]*models.Student
}

func (m *memoryStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StudentDetail{}
	for _, s := range m.students {
		out = append(out, models.StudentDetail{Student: *s})
	}
	return out, len(out), nil
}

func (m *memoryStudents) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.StudentDetail{Student: *s}, nil
}

func (m *memoryStudents) Create(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	student.ID = int64(len(m.students) + 1)
	copied := *student
	m.students[student.ID] = &copied
	return nil
}

// Update leaves group_id alone, like the SQL repository.
func (m *memoryStudents) Update(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.students[student.ID]
	if !ok {
		return sql.ErrNoRows
	}
	copied := *student
	copied.GroupID = current.GroupID
	m.students[student.ID] = &copied
	return nil
}

func (m *memoryStudents) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

func (m *memoryStudents) groupOf(id int64) *int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.students[id].GroupID
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (r *recordingAudit) Create(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *recordingAudit) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

type fixture struct {
	router   *gin.Engine
	audit    *recordingAudit
	metrics  *service.MetricsService
	students *memoryStudents
}

type tempUploads string

func (d tempUploads) Dir() string        { return string(d) }
func (d tempUploads) PublicPath() string { return "/uploads" }

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWithUploads(t, nil)
}

func newFixtureWithUploads(t *testing.T, uploads UploadDir) fixture {
	t.Helper()
	metrics := service.NewMetricsService()
	audit := &recordingAudit{}
	courses := service.NewCourseService(&memoryCourses{courses: map[int64]*models.CourseNumber{}}, nil, nil)
	studentRepo := &memoryStudents{students: map[int64]*models.Student{}}
	students := service.NewStudentService(studentRepo, nil, metrics, nil, nil)

	cfg := &config.Config{Env: "test", APIPrefix: "/api"}
	opts := Options{
		Config:  cfg,
		Metrics: metrics,
		Audit:   audit,
		Uploads: uploads,
		Tokens: stubTokens{
			"admin":     {UserID: 1, Role: models.RoleAdmin},
			"teacher":   {UserID: 2, Role: models.RoleTeacher},
			"inspector": {UserID: 3, Role: models.RoleInspector},
		},
	}
	handlers := Handlers{
		Auth:     handler.NewAuthHandler(nil),
		Users:    handler.NewUserHandler(nil),
		Students: handler.NewStudentHandler(students),
		Teachers: handler.NewTeacherHandler(nil),
		Groups:   handler.NewGroupHandler(nil),
		Courses:  handler.NewCourseHandler(courses),
		Reports:  handler.NewReportHandler(nil),
		Health:   handler.NewHealthHandler(metrics, nil),
	}
	return fixture{router: NewRouter(opts, handlers), audit: audit, metrics: metrics, students: studentRepo}
}

func (f fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestRouterHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRequiresToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/students", "/api/groups/1", "/api/reports/summary", "/api/auth/me"} {
		rec := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(t, rec), path)
	}
}

func TestRouterEnforcesRoles(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodGet, "/api/users", "teacher"},
		{http.MethodPost, "/api/courses", "inspector"},
		{http.MethodDelete, "/api/students/1", "teacher"},
		{http.MethodPost, "/api/groups/1/students", "teacher"},
		{http.MethodPost, "/api/reports/generate", "teacher"},
		{http.MethodPost, "/api/reports/attendance", "inspector"},
	}
	for _, tc := range cases {
		rec := f.do(tc.method, tc.path, tc.token, map[string]string{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s as %s", tc.method, tc.path, tc.token)
	}
	assert.Zero(t, f.audit.count())
}

func TestRouterRejectsNonNumericIDs(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/students/abc", "admin", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/api/groups/1/students/x", "admin", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/courses/1.5", "inspector", nil).Code)
}

func TestRouterStudentUpdateCannotMoveGroups(t *testing.T) {
	f := newFixture(t)
	group := int64(1)
	f.students.students[1] = &models.Student{ID: 1, IIN: "070314650123", FirstName: "Aruzhan", LastName: "Sadykova", GroupID: &group}

	body := map[string]interface{}{
		"iin": "070314650123", "firstName": "Aruzhan", "lastName": "Sadykova", "birthDate": "2007-03-14", "groupId": 2,
	}
	rec := f.do(http.MethodPut, "/api/students/1", "teacher", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(t, rec))
	assert.Equal(t, int64(1), *f.students.groupOf(1))
	assert.Zero(t, f.audit.count())

	delete(body, "groupId")
	body["firstName"] = "Aru"
	rec = f.do(http.MethodPut, "/api/students/1", "teacher", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.students.groupOf(1))
	assert.Equal(t, int64(1), *f.students.groupOf(1))
	assert.Equal(t, 1, f.audit.count())
}

func TestRouterCourseLifecycleIsAudited(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/courses", "admin", map[string]string{"name": "1", "description": "first year"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.audit.count())

	rec = f.do(http.MethodGet, "/api/courses/1", "teacher", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/courses/1", "admin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, f.audit.count())

	rec = f.do(http.MethodDelete, "/api/courses/1", "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 2, f.audit.count())
}

func TestRouterUnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/nothing", "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, rec))
}

func TestRouterMetricsUseRouteTemplates(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/api/courses/1", "admin", nil)

	rec := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/courses/:id"`)
	assert.NotContains(t, rec.Body.String(), `path="/api/courses/1"`)
}

func TestRouterServesUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "students"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "students", "a.txt"), []byte("picture"), 0o644))
	f := newFixtureWithUploads(t, tempUploads(dir))

	rec := f.do(http.MethodGet, "/uploads/students/a.txt", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "picture", rec.Body.String())
}
