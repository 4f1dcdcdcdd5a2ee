package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/schoolware/testhub-backend/internal/config"
	"github.com/schoolware/testhub-backend/internal/handler"
	"github.com/schoolware/testhub-backend/internal/middleware"
	"github.com/schoolware/testhub-backend/internal/response"
	"github.com/schoolware/testhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Test       *handler.TestHandler
	Question   *handler.QuestionHandler
	Submission *handler.SubmissionHandler
	Stats      *handler.StatsHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
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
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public + Profile) ──────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Teacher Group (JWT, teacher or admin) ──────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.POST("/tests", handlers.Test.Create)
		teacherAPI.GET("/tests", handlers.Test.List)
		teacherAPI.GET("/tests/:id", handlers.Test.Get)
		teacherAPI.PUT("/tests/:id", handlers.Test.Update)
		teacherAPI.DELETE("/tests/:id", handlers.Test.Delete)

		teacherAPI.POST("/tests/:id/questions", handlers.Question.Create)
		teacherAPI.PUT("/tests/:id/questions/:question_id", handlers.Question.Update)
		teacherAPI.DELETE("/tests/:id/questions/:question_id", handlers.Question.Delete)

		teacherAPI.GET("/tests/:id/stats", handlers.Stats.TestStats)
	}

	// ─── 3. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/tests", handlers.Test.ListActive)
		studentAPI.POST("/tests/:id/start", handlers.Test.Start)

		studentAPI.POST("/submissions", handlers.Submission.Submit)
		studentAPI.GET("/submissions", handlers.Submission.List)
		studentAPI.GET("/submissions/:id", handlers.Submission.Get)

		studentAPI.GET("/stats", handlers.Stats.MyStats)
	}

	return router
}
