package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mandoub-dev/mandoub-api/api/swagger"
	"github.com/mandoub-dev/mandoub-api/internal/handler"
	"github.com/mandoub-dev/mandoub-api/internal/middleware"
	"github.com/mandoub-dev/mandoub-api/internal/models"
	"github.com/mandoub-dev/mandoub-api/internal/repository"
	"github.com/mandoub-dev/mandoub-api/internal/service"
	"github.com/mandoub-dev/mandoub-api/pkg/cache"
	"github.com/mandoub-dev/mandoub-api/pkg/config"
	"github.com/mandoub-dev/mandoub-api/pkg/database"
	"github.com/mandoub-dev/mandoub-api/pkg/jobs"
	"github.com/mandoub-dev/mandoub-api/pkg/logger"
	corsmiddleware "github.com/mandoub-dev/mandoub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mandoub-dev/mandoub-api/pkg/middleware/requestid"
	"github.com/mandoub-dev/mandoub-api/pkg/storage"
)

// @title Mandoub API
// @version 1.0.0
// @description Enrollment and commission management API for the Mandoub agency console
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	delegateRepo := repository.NewDelegateRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, activityRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mandoub-api",
	})

	studentSvc := service.NewStudentService(service.StudentServiceParams{
		Students:         studentRepo,
		Commissions:      commissionRepo,
		Delegates:        delegateRepo,
		Activity:         activityRepo,
		Notifications:    notificationRepo,
		Validator:        validate,
		Logger:           logr,
		CommissionAmount: cfg.Commission.Amount,
	})

	commissionSvc := service.NewCommissionService(service.CommissionServiceParams{
		Commissions:   commissionRepo,
		Delegates:     delegateRepo,
		Activity:      activityRepo,
		Notifications: notificationRepo,
		Validator:     validate,
		Logger:        logr,
	})

	delegateSvc := service.NewDelegateService(delegateRepo, userRepo, bankAccountRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr, nil)
	userSvc := service.NewUserService(userRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	activitySvc := service.NewActivityService(activityRepo, logr)
	importSvc := service.NewImportService(studentSvc, delegateRepo, courseRepo, logr, cfg.Imports.MaxRowCount)
	exportSvc := service.NewExportService(studentRepo, commissionRepo, delegateRepo, nil, nil, logr)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:    studentRepo,
		Delegates:   delegateRepo,
		Commissions: commissionRepo,
		Cache:       cacheRepo,
		Logger:      logr,
		CacheTTL:    cfg.Dashboard.CacheTTL,
	})

	backupStorage, err := storage.NewLocalStorage(cfg.Backups.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare backup storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Backups.SignedURLSecret, cfg.Backups.SignedURLTTL)

	var backupWorker *service.BackupWorker
	backupQueue := jobs.NewQueue("backups", func(ctx context.Context, job jobs.Job) error {
		return backupWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Backups.WorkerConcurrency,
		MaxRetries: cfg.Backups.WorkerRetries,
		Logger:     logr,
	})

	backupSvc := service.NewBackupService(service.BackupServiceParams{
		Students:     studentRepo,
		Commissions:  commissionRepo,
		Users:        userRepo,
		Delegates:    delegateRepo,
		BankAccounts: bankAccountRepo,
		Courses:      courseRepo,
		Restorer:     snapshotRepo,
		Storage:      backupStorage,
		Signer:       signer,
		Queue:        backupQueue,
		Activity:     activityRepo,
		Logger:       logr,
		Config: service.BackupServiceConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Backups.RetentionTTL,
			CleanupInterval: cfg.Backups.CleanupInterval,
		},
	})
	backupWorker = service.NewBackupWorker(backupSvc, logr)

	backupQueue.Start(ctx)
	defer backupQueue.Stop()
	backupSvc.StartCleanup(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, importSvc, exportSvc, metricsSvc)
	commissionHandler := handler.NewCommissionHandler(commissionSvc, exportSvc)
	delegateHandler := handler.NewDelegateHandler(delegateSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	userHandler := handler.NewUserHandler(userSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	backupHandler := handler.NewBackupHandler(backupSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Download tokens are self-authenticating.
	api.GET("/backups/download", backupHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	students := authed.Group("/students")
	{
		students.GET("", studentHandler.List)
		students.GET("/export", studentHandler.Export)
		students.GET("/:id", studentHandler.Get)
		students.POST("", studentHandler.Register)
		students.PUT("/:id", staff, studentHandler.Update)
		students.DELETE("/:id", staff, studentHandler.Delete)
		if cfg.Imports.Enabled {
			students.POST("/import", staff, studentHandler.Import)
		}
	}

	commissions := authed.Group("/commissions")
	{
		commissions.GET("", commissionHandler.List)
		commissions.GET("/totals", commissionHandler.Totals)
		commissions.GET("/export", commissionHandler.Export)
		commissions.GET("/:id", commissionHandler.Get)
		commissions.PATCH("/:id/status", staff, commissionHandler.UpdateStatus)
		commissions.PATCH("/:id/student-status", staff, commissionHandler.UpdateStudentStatus)
		commissions.DELETE("/:id", adminOnly, commissionHandler.Delete)
	}

	delegates := authed.Group("/delegates")
	{
		delegates.GET("", delegateHandler.List)
		delegates.GET("/top", delegateHandler.Top)
		delegates.GET("/:id", delegateHandler.Get)
		delegates.GET("/:id/network", delegateHandler.Network)
		delegates.GET("/:id/bank-accounts", delegateHandler.BankAccounts)
		delegates.POST("", staff, delegateHandler.Create)
		delegates.PUT("/:id", staff, delegateHandler.Update)
		delegates.POST("/:id/bank-accounts", staff, delegateHandler.AddBankAccount)
		delegates.DELETE("/:id/bank-accounts/:accountId", staff, delegateHandler.RemoveBankAccount)
	}

	courses := authed.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", staff, courseHandler.Create)
		courses.PUT("/:id", staff, courseHandler.Update)
		courses.DELETE("/:id", adminOnly, courseHandler.Delete)
	}

	users := authed.Group("/users")
	{
		users.GET("", staff, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleManager), "SELF"), userHandler.Get)
		users.POST("", adminOnly, middleware.Audit(activityRepo, models.ActivityActionAdd, "user"), userHandler.Create)
		users.PUT("/:id", adminOnly, middleware.Audit(activityRepo, models.ActivityActionUpdate, "user"), userHandler.Update)
		users.DELETE("/:id", adminOnly, middleware.Audit(activityRepo, models.ActivityActionDelete, "user"), userHandler.Deactivate)
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		notifications.DELETE("", notificationHandler.Clear)
	}

	authed.GET("/activity", staff, activityHandler.List)

	if cfg.Dashboard.Enabled {
		authed.GET("/dashboard", dashboardHandler.Summary)
	}

	if cfg.Backups.Enabled {
		backups := authed.Group("/backups", adminOnly)
		backups.POST("", backupHandler.Create)
		backups.GET("", backupHandler.List)
		backups.POST("/restore", backupHandler.Restore)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
