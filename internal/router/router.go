package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oralis/viva-backend/internal/config"
	"github.com/oralis/viva-backend/internal/handler"
	"github.com/oralis/viva-backend/internal/middleware"
	"github.com/oralis/viva-backend/internal/response"
	"github.com/oralis/viva-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	StudentMgmt   *handler.StudentManagementHandler
	Viva          *handler.VivaHandler
	WS            *handler.WSHandler
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

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/examiner/login", handlers.Auth.ExaminerLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.GET("/examiner/me", middleware.RequireExaminerJWT(authService), handlers.Auth.GetExaminerProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/vivas/:viva_id/join", handlers.StudentPortal.JoinViva)
		studentAPI.GET("/vivas/:viva_id/session", handlers.StudentPortal.GetSessionState)
		studentAPI.POST("/vivas/:viva_id/session/answers", handlers.StudentPortal.SubmitAnswer)
	}

	// ─── 3. WebSocket Group (Examiner WS Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireExaminerWSAuth(authService))
	{
		ws.GET("/examiner/vivas/:viva_id/monitor", handlers.WS.MonitorStream)
	}

	// ─── 4. Examiner Group (JWT) ───────────────────────────────────────
	examinerAPI := router.Group("/api/v1/examiner")
	examinerAPI.Use(middleware.RequireExaminerJWT(authService))
	{
		// Viva management
		examinerAPI.GET("/vivas", handlers.Viva.ListVivas)
		examinerAPI.POST("/vivas", handlers.Viva.CreateViva)
		examinerAPI.GET("/vivas/:viva_id", handlers.Viva.GetViva)
		examinerAPI.PUT("/vivas/:viva_id", handlers.Viva.UpdateViva)
		examinerAPI.DELETE("/vivas/:viva_id", handlers.Viva.DeleteViva)
		examinerAPI.GET("/vivas/:viva_id/questions", handlers.Viva.ListQuestions)
		examinerAPI.PUT("/vivas/:viva_id/questions", handlers.Viva.ReplaceQuestions)
		examinerAPI.POST("/vivas/:viva_id/publish", handlers.Viva.PublishViva)
		examinerAPI.POST("/vivas/:viva_id/archive", handlers.Viva.ArchiveViva)
		examinerAPI.GET("/vivas/:viva_id/results", handlers.Viva.GetResults)

		// Student account management
		examinerAPI.GET("/students", handlers.StudentMgmt.ListStudents)
		examinerAPI.POST("/students", handlers.StudentMgmt.CreateStudent)
		examinerAPI.POST("/students/:student_id/reset-login", handlers.StudentMgmt.ResetStudentLogin)
	}

	return router
}
