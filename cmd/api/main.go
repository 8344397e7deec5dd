package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	_ "github.com/tutorhive/tutorhive-api/api/swagger"
	"github.com/tutorhive/tutorhive-api/internal/handler"
	"github.com/tutorhive/tutorhive-api/internal/repository"
	"github.com/tutorhive/tutorhive-api/internal/router"
	"github.com/tutorhive/tutorhive-api/internal/service"
	"github.com/tutorhive/tutorhive-api/pkg/cache"
	"github.com/tutorhive/tutorhive-api/pkg/config"
	"github.com/tutorhive/tutorhive-api/pkg/database"
	"github.com/tutorhive/tutorhive-api/pkg/jobs"
	"github.com/tutorhive/tutorhive-api/pkg/logger"
	"github.com/tutorhive/tutorhive-api/pkg/storage"
)

// @title TutorHive API
// @version 1.0.0
// @description Tutoring management backend: scheduling, bookings, tasks, payments and materials
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	materialStore, err := storage.NewLocalStorage(cfg.Materials.StorageDir)
	if err != nil {
		logr.Fatal("failed to init material storage", zap.Error(err))
	}
	receiptStore, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Fatal("failed to init receipt storage", zap.Error(err))
	}

	materialSigner := storage.NewSignedURLSigner(cfg.Materials.SignedURLSecret, cfg.Materials.SignedURLTTL)
	receiptSigner := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	eventRepo := repository.NewEventRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	integrationRepo := repository.NewIntegrationRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)

	metricsService := service.NewMetricsService()

	authService := service.NewAuthService(userRepo, teacherRepo, studentRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tutorhive-api",
		Audience:           []string{"tutorhive"},
	})

	teacherService := service.NewTeacherService(teacherRepo, userRepo, nil, logr)
	studentService := service.NewStudentService(studentRepo, nil, logr)
	classService := service.NewClassService(classRepo, studentRepo, nil, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, nil, logr)
	noteService := service.NewNoteService(noteRepo, studentRepo, nil, logr)

	googleAuth := service.NewGoogleOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	zoomAuth := service.NewZoomOAuthConfig(cfg.Zoom.ClientID, cfg.Zoom.ClientSecret, cfg.Zoom.RedirectURL)
	integrationService := service.NewIntegrationService(integrationRepo, googleAuth, zoomAuth, logr)

	eventService := service.NewEventService(eventRepo, integrationService, nil, logr)
	bookingService := service.NewBookingService(teacherRepo, scheduleRepo, eventRepo, studentRepo, cfg.Booking.MaxAdvanceDays, nil, logr)
	taskService := service.NewTaskService(taskRepo, studentRepo, nil, logr)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, materialStore, nil, logr)

	var paymentService *service.PaymentService
	receiptQueue := jobs.NewQueue("receipts", func(ctx context.Context, job jobs.Job) error {
		err := paymentService.RenderReceipt(ctx, job)
		if err == nil {
			metricsService.RecordReceiptRendered()
		}
		return err
	}, jobs.QueueConfig{
		Workers:    cfg.Receipts.WorkerConcurrency,
		MaxRetries: cfg.Receipts.WorkerRetries,
		Logger:     logr,
	})

	snapClient := service.NewSnapClient(cfg.Payments.MidtransServerKey, cfg.Payments.Production)
	paymentService = service.NewPaymentService(paymentRepo, studentRepo, snapClient, cfg.Payments.GatewayEnabled, cfg.Payments.MidtransServerKey, receiptQueue, receiptStore, receiptSigner, nil, logr)

	materialService := service.NewMaterialService(materialRepo, classRepo, materialStore, materialSigner, cfg.Materials.MaxFileSizeBytes, cfg.Materials.AllowedMIMEs, nil, logr)
	courseService := service.NewCourseService(courseRepo, redisClient, cfg.Catalog.CacheTTL, nil, logr)
	onboardingService := service.NewOnboardingService(onboardingRepo, nil, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	receiptQueue.Start(queueCtx)
	defer func() {
		stopQueue()
		receiptQueue.Stop()
	}()

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Teacher:     handler.NewTeacherHandler(teacherService),
		Student:     handler.NewStudentHandler(studentService, noteService),
		Class:       handler.NewClassHandler(classService),
		Event:       handler.NewEventHandler(eventService),
		Schedule:    handler.NewScheduleHandler(scheduleService),
		Booking:     handler.NewBookingHandler(bookingService, metricsService),
		Task:        handler.NewTaskHandler(taskService),
		Submission:  handler.NewSubmissionHandler(submissionService),
		Payment:     handler.NewPaymentHandler(paymentService),
		Material:    handler.NewMaterialHandler(materialService),
		Download:    handler.NewDownloadHandler(materialSigner, materialStore, receiptSigner, receiptStore),
		Integration: handler.NewIntegrationHandler(integrationService),
		Course:      handler.NewCourseHandler(courseService),
		Onboarding:  handler.NewOnboardingHandler(onboardingService),
		Metrics:     handler.NewMetricsHandler(metricsService),
	}

	r := router.Setup(cfg, logr, authService, metricsService, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
