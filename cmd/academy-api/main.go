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
	"go.uber.org/zap"

	_ "github.com/limpopochefs/academy-api/api/swagger"
	"github.com/limpopochefs/academy-api/internal/handler"
	"github.com/limpopochefs/academy-api/internal/middleware"
	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/repository"
	"github.com/limpopochefs/academy-api/internal/service"
	"github.com/limpopochefs/academy-api/pkg/cache"
	"github.com/limpopochefs/academy-api/pkg/config"
	"github.com/limpopochefs/academy-api/pkg/database"
	"github.com/limpopochefs/academy-api/pkg/jobs"
	"github.com/limpopochefs/academy-api/pkg/logger"
	"github.com/limpopochefs/academy-api/pkg/mail"
	corsmiddleware "github.com/limpopochefs/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/limpopochefs/academy-api/pkg/middleware/requestid"
	"github.com/limpopochefs/academy-api/pkg/storage"
)

// @title Academy Assessment API
// @version 1.0.0
// @description Multi-campus academy assessment backend: assignments, attempts, marking and result ledgers
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewObjectStore(cfg.Uploads.StorageDir, cfg.Uploads.PublicBaseURL)
	if err != nil {
		logr.Fatal("failed to init object storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	// Repositories.
	staffRepo := repository.NewStaffRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	moderationRepo := repository.NewModerationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	var mailer mail.Sender
	if cfg.Mail.Enabled && cfg.Mail.SendgridKey != "" {
		mailer = mail.NewSendgridSender(cfg.Mail.SendgridKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	} else {
		mailer = mail.NewConsoleSender(logr)
	}

	notifierSvc := service.NewNotifierService(notificationRepo, studentRepo, mailer, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, logr)

	authSvc := service.NewAuthService(staffRepo, studentRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academy-api",
		SingleSession:      true,
	})

	permissionSvc := service.NewPermissionService(staffRepo, logr)
	sessionSvc := service.NewSessionService(assignmentRepo, questionRepo, answerRepo, attemptRepo, studentRepo, notifierSvc, signer, nil, validate, logr)
	markingSvc := service.NewMarkingService(attemptRepo, answerRepo, questionRepo, assignmentRepo, ledgerRepo, moderationRepo, notifierSvc, cacheRepo, signer, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, validate, logr)
	questionSvc := service.NewQuestionService(questionRepo, assignmentRepo, store, signer, validate, logr)
	resultSvc := service.NewResultService(ledgerRepo, attemptRepo, cacheRepo, cfg.Marking.SummaryCacheTTL, logr)
	staffSvc := service.NewStaffService(staffRepo, roleRepo, logr)
	metricsSvc := service.NewMetricsService()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notifierSvc.Start(ctx)
	defer notifierSvc.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	markingHandler := handler.NewMarkingHandler(markingSvc, sessionSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	resultHandler := handler.NewResultHandler(resultSvc)
	staffHandler := handler.NewStaffHandler(staffSvc)
	notificationHandler := handler.NewNotificationHandler(notifierSvc)
	fileHandler := handler.NewFileHandler(store, signer)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/files", fileHandler.Serve)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/staff/login", authHandler.LoginStaff)
		auth.POST("/student/login", authHandler.LoginStudent)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RequireUserType(models.UserTypeStudent))
	{
		student.GET("/assignments", sessionHandler.ListAssignments)
		student.POST("/assignments/:id/start", sessionHandler.Start)
		student.POST("/assignments/:id/write", sessionHandler.StartWriting)
		student.PUT("/assignments/:id/answers", sessionHandler.SaveAnswer)
		student.POST("/assignments/:id/submit", sessionHandler.Submit)
		student.POST("/assignments/:id/terminate", sessionHandler.Terminate)
		student.GET("/notifications", notificationHandler.List)
		student.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireUserType(models.UserTypeStaff))
	{
		assignments := admin.Group("", middleware.RequirePages(permissionSvc, logr, "assignments"))
		{
			assignments.GET("/assignments", assignmentHandler.List)
			assignments.POST("/assignments", assignmentHandler.Create)
			assignments.GET("/assignments/:id", assignmentHandler.Get)
			assignments.PUT("/assignments/:id", assignmentHandler.Update)
			assignments.DELETE("/assignments/:id", assignmentHandler.Delete)
			assignments.GET("/assignments/:id/questions", questionHandler.List)
			assignments.POST("/assignments/:id/questions", questionHandler.Create)
			assignments.PUT("/questions/:id", questionHandler.Update)
			assignments.DELETE("/questions/:id", questionHandler.Delete)
			assignments.POST("/questions/images", questionHandler.UploadImage)
		}

		marking := admin.Group("", middleware.RequirePages(permissionSvc, logr, "marking", "assignments"))
		{
			marking.GET("/assignments/:id/attempts", markingHandler.ListAttempts)
			marking.GET("/assignments/:id/moderations", markingHandler.ListModerations)
			marking.GET("/attempts/:id", markingHandler.AttemptDetail)
			marking.POST("/attempts/:id/mark", markingHandler.Mark)
			marking.POST("/attempts/:id/moderate", markingHandler.Moderate)
			marking.POST("/attempts/:id/feedback", markingHandler.AddFeedback)
			marking.POST("/attempts/:id/terminate", markingHandler.Terminate)
		}

		results := admin.Group("", middleware.RequirePages(permissionSvc, logr, "results"))
		{
			results.GET("/results", resultHandler.Ledger)
			results.GET("/campuses/:id/results", resultHandler.ListLedgers)
			results.GET("/campuses/:id/marking-progress", resultHandler.MarkingProgress)
			results.PUT("/results/:id/entries/:studentId/outcome", resultHandler.SetEntryOutcome)
			results.GET("/results/:id/export/csv", resultHandler.ExportCSV)
			results.GET("/results/:id/export/pdf", resultHandler.ExportPDF)
		}

		staff := admin.Group("", middleware.RequirePages(permissionSvc, logr, "staff"))
		{
			staff.GET("/staff/:id", staffHandler.Get)
			staff.PUT("/staff/:id/permissions", staffHandler.SetUserPermissions)
			staff.GET("/roles", staffHandler.ListRoles)
			staff.PUT("/roles/:id/permissions", staffHandler.SetRolePermissions)
		}

		admin.GET("/metrics", metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
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
