package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edumanage-api/api/swagger"
	"github.com/noah-isme/edumanage-api/internal/handler"
	"github.com/noah-isme/edumanage-api/internal/middleware"
	"github.com/noah-isme/edumanage-api/internal/repository"
	"github.com/noah-isme/edumanage-api/internal/server"
	"github.com/noah-isme/edumanage-api/internal/service"
	"github.com/noah-isme/edumanage-api/pkg/cache"
	"github.com/noah-isme/edumanage-api/pkg/config"
	"github.com/noah-isme/edumanage-api/pkg/database"
	"github.com/noah-isme/edumanage-api/pkg/jobs"
	"github.com/noah-isme/edumanage-api/pkg/logger"
	"github.com/noah-isme/edumanage-api/pkg/storage"
	"github.com/noah-isme/edumanage-api/pkg/validation"
)

// @title EduManage API
// @version 1.0.0
// @description College administration backend: students, teachers, groups, courses and reports.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(cfg.Database); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	files, err := storage.NewLocalStorage(cfg.Uploads)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validation.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	reportRepo := repository.NewReportRepository(db)

	audit := service.NewAuditDispatcher(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	audit.Start(context.Background())

	var cacheRepo service.CacheRepository
	if redisClient != nil && cfg.Reports.CacheEnabled {
		cacheRepo = repository.NewCacheRepository(redisClient, "edumanage:")
	}
	reportCache := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr)

	authSvc := service.NewAuthService(userRepo, audit, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Users:    handler.NewUserHandler(service.NewUserService(userRepo, validate, logr)),
		Students: handler.NewStudentHandler(service.NewStudentService(studentRepo, files, metrics, validate, logr)),
		Teachers: handler.NewTeacherHandler(service.NewTeacherService(teacherRepo, groupRepo, validate, logr)),
		Groups:   handler.NewGroupHandler(service.NewGroupService(groupRepo, studentRepo, validate, logr)),
		Courses:  handler.NewCourseHandler(service.NewCourseService(courseRepo, validate, logr)),
		Reports:  handler.NewReportHandler(service.NewReportService(reportRepo, reportCache, metrics, validate, logr)),
		Health:   handler.NewHealthHandler(metrics, db),
	}

	router := server.NewRouter(server.Options{
		Config:  cfg,
		Logger:  logr,
		Metrics: metrics,
		Tokens:  authSvc,
		Audit:   audit,
		Policy:  middleware.DefaultPolicy(),
		Uploads: files,
	}, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	audit.Stop()
	logr.Info("server stopped")
}
