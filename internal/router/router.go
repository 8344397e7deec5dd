package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/handler"
	"github.com/tutorhive/tutorhive-api/internal/middleware"
	"github.com/tutorhive/tutorhive-api/internal/models"
	"github.com/tutorhive/tutorhive-api/internal/service"
	"github.com/tutorhive/tutorhive-api/pkg/config"
	"github.com/tutorhive/tutorhive-api/pkg/logger"
	corsmiddleware "github.com/tutorhive/tutorhive-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorhive/tutorhive-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Teacher     *handler.TeacherHandler
	Student     *handler.StudentHandler
	Class       *handler.ClassHandler
	Event       *handler.EventHandler
	Schedule    *handler.ScheduleHandler
	Booking     *handler.BookingHandler
	Task        *handler.TaskHandler
	Submission  *handler.SubmissionHandler
	Payment     *handler.PaymentHandler
	Material    *handler.MaterialHandler
	Download    *handler.DownloadHandler
	Integration *handler.IntegrationHandler
	Course      *handler.CourseHandler
	Onboarding  *handler.OnboardingHandler
	Metrics     *handler.MetricsHandler
}

// Setup builds the gin engine with all middleware and routes mounted.
func Setup(cfg *config.Config, logr *zap.Logger, authService *service.AuthService, metricsService *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public surface: login, the booking page, the published catalog,
	// gateway callbacks, and token-gated downloads.
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	api.GET("/book/:slug", h.Booking.Page)
	api.GET("/book/:slug/slots", h.Booking.Slots)
	api.POST("/book/:slug", h.Booking.Book)

	api.GET("/catalog", h.Course.Catalog)

	api.POST("/webhooks/payment-gateway", h.Payment.GatewayNotification)

	api.GET("/downloads/materials", h.Download.Material)
	api.GET("/downloads/receipts", h.Download.Receipt)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.POST("/auth/logout", h.Auth.Logout)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/onboarding", h.Onboarding.Checklist)
	authed.POST("/onboarding/:id/complete", h.Onboarding.Complete)

	teacher := authed.Group("")
	teacher.Use(middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))

	teacher.GET("/students", h.Student.List)
	teacher.POST("/students", h.Student.Create)
	teacher.GET("/students/:id", h.Student.Get)
	teacher.PUT("/students/:id", h.Student.Update)
	teacher.DELETE("/students/:id", h.Student.Archive)
	teacher.GET("/students/:id/notes", h.Student.ListNotes)
	teacher.POST("/students/:id/notes", h.Student.CreateNote)
	teacher.PUT("/notes/:noteId", h.Student.UpdateNote)
	teacher.DELETE("/notes/:noteId", h.Student.DeleteNote)

	teacher.GET("/classes", h.Class.List)
	teacher.POST("/classes", h.Class.Create)
	teacher.GET("/classes/:id", h.Class.Get)
	teacher.PUT("/classes/:id", h.Class.Update)
	teacher.DELETE("/classes/:id", h.Class.Archive)
	teacher.POST("/classes/:id/students/:studentId", h.Class.Enroll)
	teacher.DELETE("/classes/:id/students/:studentId", h.Class.Unenroll)

	teacher.GET("/events", h.Event.List)
	teacher.POST("/events", h.Event.Create)
	teacher.GET("/events/:id", h.Event.Get)
	teacher.PUT("/events/:id", h.Event.Update)
	teacher.DELETE("/events/:id", h.Event.Delete)

	teacher.GET("/schedule", h.Schedule.Get)
	teacher.POST("/schedule/rules", h.Schedule.AddRule)
	teacher.PUT("/schedule/rules", h.Schedule.ReplaceRules)
	teacher.DELETE("/schedule/rules", h.Schedule.RemoveRule)
	teacher.PUT("/schedule/settings", h.Schedule.UpdateSettings)

	teacher.GET("/tasks", h.Task.List)
	teacher.POST("/tasks", h.Task.Create)
	teacher.GET("/tasks/:id", h.Task.Get)
	teacher.PUT("/tasks/:id", h.Task.Update)
	teacher.DELETE("/tasks/:id", h.Task.Delete)
	teacher.POST("/tasks/:id/assignments", h.Task.Assign)
	teacher.DELETE("/tasks/:id/assignments/:studentId", h.Task.Unassign)
	teacher.GET("/tasks/:id/submissions", h.Submission.ListByTask)
	teacher.PUT("/submissions/:id/review", h.Submission.Review)

	teacher.GET("/payments", h.Payment.List)
	teacher.POST("/payments", h.Payment.Create)
	teacher.GET("/payments/export", h.Payment.ExportCSV)
	teacher.POST("/payments/sweep-overdue", h.Payment.SweepOverdue)
	teacher.GET("/payments/:id", h.Payment.Get)
	teacher.POST("/payments/:id/issue", h.Payment.Issue)
	teacher.POST("/payments/:id/mark-paid", h.Payment.MarkPaid)
	teacher.POST("/payments/:id/void", h.Payment.Void)
	teacher.GET("/payments/:id/receipt", h.Payment.ReceiptLink)

	teacher.GET("/materials", h.Material.List)
	teacher.POST("/materials", h.Material.Upload)
	teacher.GET("/materials/:id", h.Material.Get)
	teacher.PUT("/materials/:id", h.Material.Update)
	teacher.DELETE("/materials/:id", h.Material.Delete)
	teacher.POST("/materials/:id/shares/:classId", h.Material.Share)
	teacher.DELETE("/materials/:id/shares/:classId", h.Material.Unshare)
	teacher.GET("/materials/:id/download", h.Material.DownloadLink)

	teacher.GET("/integrations", h.Integration.Status)
	teacher.GET("/integrations/:provider/auth-url", h.Integration.AuthURL)
	teacher.POST("/integrations/:provider/connect", h.Integration.Connect)
	teacher.DELETE("/integrations/:provider", h.Integration.Disconnect)

	student := authed.Group("")
	student.Use(middleware.RequireRoles(models.RoleStudent))

	student.GET("/me/tasks", h.Task.StudentFeed)
	student.POST("/me/tasks/:id/submissions/text", h.Submission.SubmitText)
	student.POST("/me/tasks/:id/submissions/choice", h.Submission.SubmitChoice)
	student.POST("/me/tasks/:id/submissions/file", h.Submission.SubmitFile)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/teachers", h.Teacher.List)
	admin.POST("/teachers", h.Teacher.Create)
	admin.GET("/teachers/:id", h.Teacher.Get)
	admin.PUT("/teachers/:id", h.Teacher.Update)
	admin.DELETE("/teachers/:id", h.Teacher.Deactivate)

	admin.GET("/courses", h.Course.List)
	admin.POST("/courses", h.Course.Create)
	admin.GET("/courses/:id", h.Course.Get)
	admin.PUT("/courses/:id", h.Course.Update)
	admin.DELETE("/courses/:id", h.Course.Delete)

	admin.GET("/onboarding/steps", h.Onboarding.ListSteps)
	admin.POST("/onboarding/steps", h.Onboarding.CreateStep)
	admin.PUT("/onboarding/steps/:id", h.Onboarding.UpdateStep)
	admin.DELETE("/onboarding/steps/:id", h.Onboarding.DeleteStep)

	return r
}
