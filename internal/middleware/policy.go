package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edumanage-api/internal/models"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/response"
)

// Operation names a protected action in the policy table.
type Operation string

const (
	OpStudentsRead    Operation = "students.read"
	OpStudentsWrite   Operation = "students.write"
	OpStudentsDelete  Operation = "students.delete"
	OpTeachersRead    Operation = "teachers.read"
	OpTeachersWrite   Operation = "teachers.write"
	OpTeachersDelete  Operation = "teachers.delete"
	OpGroupsRead      Operation = "groups.read"
	OpGroupsWrite     Operation = "groups.write"
	OpGroupsDelete    Operation = "groups.delete"
	OpGroupsMembers   Operation = "groups.members"
	OpCoursesRead     Operation = "courses.read"
	OpCoursesWrite    Operation = "courses.write"
	OpCoursesDelete   Operation = "courses.delete"
	OpUsersManage     Operation = "users.manage"
	OpReportsRead     Operation = "reports.read"
	OpReportsGenerate Operation = "reports.generate"
	OpReportsRecord   Operation = "reports.record"
)

// Policy maps each operation to the roles allowed to perform it.
type Policy map[Operation][]models.UserRole

// DefaultPolicy returns the role table enforced by the API.
func DefaultPolicy() Policy {
	all := []models.UserRole{models.RoleAdmin, models.RoleTeacher, models.RoleInspector}
	admin := []models.UserRole{models.RoleAdmin}
	return Policy{
		OpStudentsRead:    all,
		OpStudentsWrite:   {models.RoleAdmin, models.RoleTeacher},
		OpStudentsDelete:  admin,
		OpTeachersRead:    all,
		OpTeachersWrite:   admin,
		OpTeachersDelete:  admin,
		OpGroupsRead:      all,
		OpGroupsWrite:     admin,
		OpGroupsDelete:    admin,
		OpGroupsMembers:   admin,
		OpCoursesRead:     all,
		OpCoursesWrite:    admin,
		OpCoursesDelete:   admin,
		OpUsersManage:     admin,
		OpReportsRead:     all,
		OpReportsGenerate: {models.RoleAdmin, models.RoleInspector},
		OpReportsRecord:   {models.RoleAdmin, models.RoleTeacher},
	}
}

// Allows reports whether role may perform op. Unknown operations are denied.
func (p Policy) Allows(op Operation, role models.UserRole) bool {
	for _, allowed := range p[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize enforces the policy entry for op on the authenticated user.
func Authorize(policy Policy, op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !policy.Allows(op, claims.Role) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions for "+string(op)))
			c.Abort()
			return
		}
		c.Next()
	}
}
