package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edumanage-api/internal/handler"
	"github.com/noah-isme/edumanage-api/internal/middleware"
	"github.com/noah-isme/edumanage-api/internal/service"
	"github.com/noah-isme/edumanage-api/pkg/config"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
	"github.com/noah-isme/edumanage-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edumanage-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edumanage-api/pkg/middleware/requestid"
	"github.com/noah-isme/edumanage-api/pkg/response"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Students *handler.StudentHandler
	Teachers *handler.TeacherHandler
	Groups   *handler.GroupHandler
	Courses  *handler.CourseHandler
	Reports  *handler.ReportHandler
	Health   *handler.HealthHandler
}

// UploadDir locates stored uploads and the URL prefix they are served under.
type UploadDir interface {
	Dir() string
	PublicPath() string
}

// Options carries everything the router needs besides the handlers.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Tokens  middleware.TokenValidator
	Audit   service.AuditRecorder
	Policy  middleware.Policy
	Uploads UploadDir
}

// NewRouter builds the gin engine with the full middleware chain and every route.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	policy := opts.Policy
	if policy == nil {
		policy = middleware.DefaultPolicy()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)

	if opts.Uploads != nil {
		r.Static(opts.Uploads.PublicPath(), opts.Uploads.Dir())
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authn := middleware.JWT(opts.Tokens)
	allow := func(op middleware.Operation) gin.HandlerFunc { return middleware.Authorize(policy, op) }
	audit := func(resource string) gin.HandlerFunc { return middleware.Audit(opts.Audit, resource, log) }

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", authn, h.Auth.Logout)
	auth.GET("/me", authn, h.Auth.Me)
	auth.POST("/change-password", authn, h.Auth.ChangePassword)

	students := api.Group("/students", authn, audit("students"))
	students.GET("", allow(middleware.OpStudentsRead), h.Students.List)
	students.GET("/:id", allow(middleware.OpStudentsRead), h.Students.Get)
	students.POST("", allow(middleware.OpStudentsWrite), h.Students.Create)
	students.PUT("/:id", allow(middleware.OpStudentsWrite), h.Students.Update)
	students.DELETE("/:id", allow(middleware.OpStudentsDelete), h.Students.Delete)

	teachers := api.Group("/teachers", authn, audit("teachers"))
	teachers.GET("", allow(middleware.OpTeachersRead), h.Teachers.List)
	teachers.GET("/:id", allow(middleware.OpTeachersRead), h.Teachers.Get)
	teachers.POST("", allow(middleware.OpTeachersWrite), h.Teachers.Create)
	teachers.PUT("/:id", allow(middleware.OpTeachersWrite), h.Teachers.Update)
	teachers.DELETE("/:id", allow(middleware.OpTeachersDelete), h.Teachers.Delete)

	groups := api.Group("/groups", authn, audit("groups"))
	groups.GET("", allow(middleware.OpGroupsRead), h.Groups.List)
	groups.GET("/:id", allow(middleware.OpGroupsRead), h.Groups.Get)
	groups.POST("", allow(middleware.OpGroupsWrite), h.Groups.Create)
	groups.PUT("/:id", allow(middleware.OpGroupsWrite), h.Groups.Update)
	groups.DELETE("/:id", allow(middleware.OpGroupsDelete), h.Groups.Delete)
	groups.POST("/:id/students", allow(middleware.OpGroupsMembers), h.Groups.AddStudent)
	groups.DELETE("/:id/students/:studentId", allow(middleware.OpGroupsMembers), h.Groups.RemoveStudent)

	courses := api.Group("/courses", authn, audit("courses"))
	courses.GET("", allow(middleware.OpCoursesRead), h.Courses.List)
	courses.GET("/:id", allow(middleware.OpCoursesRead), h.Courses.Get)
	courses.POST("", allow(middleware.OpCoursesWrite), h.Courses.Create)
	courses.PUT("/:id", allow(middleware.OpCoursesWrite), h.Courses.Update)
	courses.DELETE("/:id", allow(middleware.OpCoursesDelete), h.Courses.Delete)

	users := api.Group("/users", authn, allow(middleware.OpUsersManage), audit("users"))
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	reports := api.Group("/reports", authn)
	reports.GET("/attendance", allow(middleware.OpReportsRead), h.Reports.Attendance)
	reports.GET("/performance", allow(middleware.OpReportsRead), h.Reports.Performance)
	reports.GET("/summary", allow(middleware.OpReportsRead), h.Reports.Summary)
	reports.GET("/export", allow(middleware.OpReportsRead), h.Reports.Export)
	reports.POST("/generate", allow(middleware.OpReportsGenerate), h.Reports.Generate)
	reports.POST("/attendance", allow(middleware.OpReportsRecord), audit("attendance"), h.Reports.RecordAttendance)
	reports.POST("/performance", allow(middleware.OpReportsRecord), audit("performance"), h.Reports.RecordPerformance)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed"))
	})

	return r
}
