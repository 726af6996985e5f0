package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/physed-journal-api/api/swagger"
	"github.com/noah-isme/physed-journal-api/internal/handler"
	"github.com/noah-isme/physed-journal-api/internal/middleware"
	"github.com/noah-isme/physed-journal-api/internal/repository"
	"github.com/noah-isme/physed-journal-api/internal/service"
	"github.com/noah-isme/physed-journal-api/pkg/cache"
	"github.com/noah-isme/physed-journal-api/pkg/config"
	"github.com/noah-isme/physed-journal-api/pkg/database"
	"github.com/noah-isme/physed-journal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/physed-journal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/physed-journal-api/pkg/middleware/requestid"
)

// @title PhysEd Journal API
// @version 1.0.0
// @description Physical-education journal: visits, points, standards and semester closure.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient redis.Cmdable
	var redisPing handler.Pinger
	if cfg.Permissions.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, permission cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			redisClient = client
			redisPing = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		}
	}

	rules, err := service.NewCategoryRules(cfg.Rules)
	if err != nil {
		logr.Fatal("invalid rules configuration", zap.Error(err))
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	pointRepo := repository.NewPointRepository(db)
	standardRepo := repository.NewStandardRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Permissions.CacheTTL, logr, redisClient != nil)
	permissionSvc := service.NewPermissionService(teacherRepo, cacheSvc, cfg.Permissions.CacheTTL, logr)
	authSvc, err := service.NewAuthService(service.AuthConfig{
		Secret:       cfg.JWT.Secret,
		PublicKeyPEM: cfg.JWT.PublicKeyPEM,
		Issuer:       cfg.JWT.Issuer,
	}, logr)
	if err != nil {
		logr.Fatal("invalid jwt configuration", zap.Error(err))
	}

	semesterSvc := service.NewSemesterService(semesterRepo, db, validate, logr)
	archiveSvc := service.NewArchiveService(service.ArchiveDeps{
		Students:  studentRepo,
		Archives:  archiveRepo,
		Semesters: semesterSvc,
		Visits:    visitRepo,
		Points:    pointRepo,
		Standards: standardRepo,
		Groups:    groupRepo,
		Tx:        db,
		Rules:     rules,
		Policy:    service.NewClosurePolicy(cfg.Archive.Policy),
		Validate:  validate,
		Metrics:   metricsSvc,
		Logger:    logr,
	})
	adminSvc := service.NewAdminService(studentRepo, groupRepo, teacherRepo, permissionSvc, validate, logr)

	entryValidator := service.NewEntryValidator(rules, nil, visitRepo, pointRepo, standardRepo)
	deps := service.CommandDeps{
		Students:   studentRepo,
		Teachers:   teacherRepo,
		Tx:         db,
		Validator:  entryValidator,
		Validate:   validate,
		Metrics:    metricsSvc,
		Logger:     logr,
		DebtCloser: archiveSvc,
	}
	visitSvc := service.NewVisitService(deps, visitRepo)
	pointsSvc := service.NewPointsService(deps, pointRepo)
	standardsSvc := service.NewStandardsService(deps, standardRepo)

	migrationSvc := service.NewMigrationService(studentRepo, archiveSvc, metricsSvc, logr)
	worker := service.NewMigrationWorker(migrationSvc, service.MigrationWorkerConfig{
		BufferSize:        cfg.Archive.MigrationBufferSize,
		DebtSweepInterval: cfg.Archive.DebtSweepInterval,
		Logger:            logr,
	})
	worker.Start(ctx)
	defer worker.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    redisPing,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	visitHandler := handler.NewVisitHandler(visitSvc)
	pointsHandler := handler.NewPointsHandler(pointsSvc)
	standardsHandler := handler.NewStandardsHandler(standardsSvc)
	archiveHandler := handler.NewArchiveHandler(archiveSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc, worker)
	migrationHandler := handler.NewMigrationHandler(worker)
	adminHandler := handler.NewAdminHandler(adminSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc), middleware.ResolveCaller(permissionSvc))

	api.POST("/visits", visitHandler.Add)
	api.DELETE("/visits/:id", visitHandler.Delete)
	api.POST("/points", pointsHandler.Add)
	api.DELETE("/points/:id", pointsHandler.Delete)
	api.POST("/standards", standardsHandler.Add)
	api.DELETE("/standards/:id", standardsHandler.Delete)

	api.POST("/students/:guid/archive", archiveHandler.Archive)
	api.GET("/students/:guid/archive", archiveHandler.List)
	api.POST("/groups/:name/archive", archiveHandler.ArchiveGroup)

	api.GET("/semesters", semesterHandler.List)
	api.GET("/semesters/current", semesterHandler.Current)

	admin := api.Group("", middleware.RequirePrivileged())
	admin.POST("/semesters", semesterHandler.Start)
	admin.GET("/semesters/migrations", migrationHandler.List)
	admin.POST("/semesters/migrations", migrationHandler.Start)
	admin.GET("/semesters/migrations/:id", migrationHandler.Status)
	admin.POST("/students/:guid/unarchive", archiveHandler.Unarchive)
	admin.POST("/students/:guid/activate", adminHandler.Activate)
	admin.POST("/students/:guid/deactivate", adminHandler.Deactivate)
	admin.PUT("/groups/:name/visit-value", adminHandler.AssignVisitValue)
	admin.PUT("/groups/:name/curator", adminHandler.AssignCurator)
	admin.PUT("/teachers/:guid/permissions", adminHandler.GivePermissions)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
