package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/auth"
	"github.com/unisphere/exam-gateway/internal/config"
	"github.com/unisphere/exam-gateway/internal/handler"
	"github.com/unisphere/exam-gateway/internal/middleware"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/session"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Portal  *handler.PortalHandler
	Attempt *handler.AttemptHandler
	Admin   *handler.AdminHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	handlers *Handlers,
	issuer *auth.AttemptTokenIssuer,
	registry *session.Registry,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Attempt-Token"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "live_attempts": registry.Count()})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(authLimiter.Middleware())
	{
		authAPI.POST("/login", handlers.Auth.StudentLogin)
		authAPI.POST("/register", handlers.Auth.StudentRegister)
		authAPI.POST("/admin/login", handlers.Auth.AdminLogin)

		authAPI.POST("/logout", middleware.RequireStudentScope(), handlers.Auth.StudentLogout)
		authAPI.GET("/me", middleware.RequireStudentScope(), handlers.Auth.GetCurrentUser)
	}

	// ─── 2. Student Group (Upstream Bearer) ────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentScope())
	{
		studentAPI.GET("/exams", handlers.Portal.ListExams)
		studentAPI.GET("/exams/:exam_id/results", handlers.Portal.GetExamResults)
		studentAPI.GET("/results", handlers.Portal.GetAllResults)
		studentAPI.POST("/exams/:exam_id/attempt", handlers.Attempt.StartAttempt)
	}

	// ─── 3. Attempt Group (Attempt Token) ──────────────────────────────
	attemptAPI := router.Group("/api/v1/student/attempts/:attempt_id")
	attemptAPI.Use(middleware.RequireAttempt(issuer, registry))
	{
		attemptAPI.GET("", handlers.Attempt.GetSnapshot)
		attemptAPI.PUT("/answer", handlers.Attempt.SelectAnswer)
		attemptAPI.PUT("/cursor", handlers.Attempt.MoveCursor)
		attemptAPI.POST("/submit", handlers.Attempt.SubmitAttempt)
		attemptAPI.DELETE("", handlers.Attempt.AbandonAttempt)
	}

	// ─── 4. WebSocket Group (Attempt Token via Query) ──────────────────
	wsGroup := router.Group("/ws/v1/attempts/:attempt_id")
	wsGroup.Use(middleware.RequireAttempt(issuer, registry))
	{
		wsGroup.GET("/stream", handlers.WS.AttemptStream)
	}

	// ─── 5. Admin Group (Upstream Bearer) ──────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminScope())
	{
		adminAPI.GET("/exams", handlers.Admin.ListExams)
		adminAPI.POST("/exams", handlers.Admin.CreateExam)
		adminAPI.GET("/exams/:exam_id", handlers.Admin.GetExamDetails)
		adminAPI.DELETE("/exams/:exam_id", handlers.Admin.DeleteExam)
		adminAPI.GET("/exams/:exam_id/results", handlers.Admin.GetExamResults)
		adminAPI.GET("/exams/:exam_id/results/:user_id", handlers.Admin.GetStudentResult)
		adminAPI.GET("/users", handlers.Admin.ListUsers)
		adminAPI.POST("/users/bulk", handlers.Admin.BulkCreateUsers)
		adminAPI.POST("/upload-image", handlers.Admin.UploadImage)
	}

	return router
}
