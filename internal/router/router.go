package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nec-exams/examportal-backend/internal/config"
	"github.com/nec-exams/examportal-backend/internal/handler"
	"github.com/nec-exams/examportal-backend/internal/middleware"
	"github.com/nec-exams/examportal-backend/internal/response"
	"github.com/nec-exams/examportal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	ExamConfig    *handler.ExamConfigHandler
	Question      *handler.QuestionHandler
	Result        *handler.ResultHandler
	Dashboard     *handler.DashboardHandler
	Media         *handler.MediaHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(authService *service.AuthService, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// Question images, immutable once written, cached for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Registration and login get a per-IP limiter; everything behind a JWT
	// does not.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/register", handlers.Auth.Register)
		auth.GET("/student/check-roll/:roll_number", handlers.Auth.CheckRollNumber)
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
	}

	// ─── 2. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.GET("/exams", handlers.StudentPortal.ListExams)
		studentAPI.POST("/exams/:branch/:year/:semester/:subject/start", handlers.StudentPortal.StartExam)
		studentAPI.POST("/exams/submit", handlers.StudentPortal.SubmitExam)
		studentAPI.GET("/results", handlers.StudentPortal.ListOwnResults)
	}

	// ─── 3. WebSocket Group (Token via Query) ──────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/student/exams/:branch/:year/:semester/:subject/stream",
			middleware.RequireStudentWSAuth(authService),
			handlers.WS.ExamStream,
		)
		ws.GET("/updates/stream",
			middleware.RequireWSAuth(authService),
			handlers.WS.UpdatesStream,
		)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam offerings
		adminAPI.POST("/exams", handlers.ExamConfig.Upsert)
		adminAPI.GET("/exams", handlers.ExamConfig.List)
		adminAPI.GET("/exams/branches", handlers.ExamConfig.ListBranches)
		adminAPI.GET("/exams/:branch/:year/:semester/:subject", handlers.ExamConfig.Get)
		adminAPI.DELETE("/exams/:id", handlers.ExamConfig.Delete)

		// Question bank
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.POST("/questions/import", handlers.Question.Import)
		adminAPI.GET("/questions/:branch/:year/:semester/:subject", handlers.Question.List)
		adminAPI.GET("/questions/:branch/:year/:semester/:subject/sections", handlers.Question.ListSections)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)

		// Media
		adminAPI.POST("/media/upload", handlers.Media.UploadQuestionImage)

		// Student accounts
		adminAPI.GET("/students", handlers.StudentMgmt.List)
		adminAPI.GET("/students/suggest", handlers.StudentMgmt.Suggest)
		adminAPI.GET("/students/:id", handlers.StudentMgmt.Get)
		adminAPI.PUT("/students/:id", handlers.StudentMgmt.Update)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.Delete)

		// Results
		adminAPI.GET("/results", handlers.Result.List)
		adminAPI.GET("/results/filters", handlers.Result.FilterOptions)
		adminAPI.GET("/results/:id", handlers.Result.Get)
		adminAPI.DELETE("/results/:id", handlers.Result.Delete)

		// Dashboard
		adminAPI.GET("/dashboard/summary", handlers.Dashboard.Summary)
		adminAPI.GET("/dashboard/subjects", handlers.Dashboard.SubjectAggregates)
		adminAPI.GET("/dashboard/distribution", handlers.Dashboard.ScoreDistribution)
		adminAPI.GET("/dashboard/results", handlers.Dashboard.FilteredStats)
		adminAPI.GET("/dashboard/attempts/:branch/:year/:semester/:subject", handlers.Dashboard.Attempts)
		adminAPI.GET("/dashboard/integrity", handlers.Dashboard.IntegrityEvents)
	}

	return router
}
