package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/riskwatch-backend/internal/config"
	"github.com/stemsi/riskwatch-backend/internal/handler"
	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Student     *handler.StudentHandler
	StudentMgmt *handler.StudentManagementHandler
	Advisor     *handler.AdvisorHandler
	Prediction  *handler.PredictionHandler
	Alert       *handler.AlertHandler
	Dashboard   *handler.DashboardHandler
	WS          *handler.WSHandler
	System      *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	loginLimiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	router.GET("/api/v1/system/db", handlers.System.ConnectionStatus)

	requireAdvisor := []gin.HandlerFunc{
		middleware.RequireAdvisorJWT(authService),
		middleware.CheckAdvisorSession(authService),
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth/advisor")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", append(requireAdvisor, handlers.Auth.Logout)...)
		auth.GET("/me", append(requireAdvisor, handlers.Auth.Me)...)
	}

	// ─── 2. Advisor Group (JWT + Session) ──────────────────────────────
	advisorAPI := router.Group("/api/v1/advisor")
	advisorAPI.Use(requireAdvisor...)
	advisorAPI.Use(middleware.NoStore())
	{
		advisorAPI.GET("/students", handlers.Student.ListStudents)
		advisorAPI.POST("/students/by-ids", handlers.Student.StudentsByIDs)
		advisorAPI.GET("/students/export", handlers.Student.ExportStudents)

		advisorAPI.POST("/predictions", handlers.Prediction.Predict)
		advisorAPI.DELETE("/predictions", handlers.Prediction.Clear)

		advisorAPI.POST("/alerts", handlers.Alert.SendAlert)
		advisorAPI.GET("/alerts", handlers.Alert.ListAlerts)

		advisorAPI.GET("/dashboard", handlers.Dashboard.GetDashboard)
	}

	// ─── 3. WebSocket Group (Token In Query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdvisorWSAuth(authService))
	{
		ws.GET("/advisor/notifications", handlers.WS.NotificationStream)
	}

	// ─── 4. Admin Group (JWT + Session + Role) ─────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAdvisor...)
	adminAPI.Use(middleware.RequireRole(model.RoleAdmin), middleware.NoStore())
	{
		// Advisor accounts
		adminAPI.GET("/advisors", handlers.Advisor.ListAdvisors)
		adminAPI.POST("/advisors", handlers.Advisor.CreateAdvisor)
		adminAPI.GET("/advisors/:id", handlers.Advisor.GetAdvisor)
		adminAPI.PUT("/advisors/:id", handlers.Advisor.UpdateAdvisor)
		adminAPI.DELETE("/advisors/:id", handlers.Advisor.DeleteAdvisor)
		adminAPI.GET("/advisors/:id/alerts", handlers.Advisor.ListAdvisorAlerts)

		// Rosters
		adminAPI.GET("/advisors/:id/students", handlers.Advisor.GetRoster)
		adminAPI.PUT("/advisors/:id/students", handlers.Advisor.ReplaceRoster)
		adminAPI.POST("/advisors/:id/students/:student_id", handlers.Advisor.AddToRoster)
		adminAPI.DELETE("/advisors/:id/students/:student_id", handlers.Advisor.RemoveFromRoster)

		// Student data
		adminAPI.GET("/students", handlers.StudentMgmt.ListStudents)
		adminAPI.PUT("/students/:student_id", handlers.StudentMgmt.UpsertStudent)
		adminAPI.DELETE("/students/:student_id", handlers.StudentMgmt.DeleteStudent)
		adminAPI.PUT("/risks/:student_id", handlers.StudentMgmt.SetRisk)
		adminAPI.POST("/import/students", handlers.StudentMgmt.ImportStudents)
		adminAPI.POST("/import/risks", handlers.StudentMgmt.ImportRisks)

		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
