package app

import (
	"caretrain_backend/internal/config"
	"caretrain_backend/internal/middleware"
	"caretrain_backend/internal/model"
	"caretrain_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// Authenticated routes
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerWorkerRoutes(authGroup, c)
		a.registerManagerRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

// registerWorkerRoutes covers the training flow every authenticated user has
// access to: catalog, attempts, coaching and the adaptive recommendations.
func (a *App) registerWorkerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/user/profile", c.user.UpdateProfile)
	rg.GET("/dashboard", c.dashboard.GetDashboard)

	rg.GET("/scenarios", c.scenario.ListActive)
	rg.GET("/scenarios/:id", c.scenario.Get)

	attempts := rg.Group("/attempts")
	{
		attempts.POST("", c.attempt.Start)
		attempts.GET("", c.attempt.ListMine)
		attempts.POST("/:id/responses", c.attempt.AddResponse)
		attempts.PATCH("/:id/progress", c.attempt.UpdateProgress)
		attempts.POST("/:id/complete", c.attempt.Complete)
	}

	adaptive := rg.Group("/adaptive")
	{
		adaptive.GET("/profile", c.adaptive.GetProfile)
		adaptive.GET("/recommendation", c.adaptive.GetRecommendation)
		adaptive.GET("/scenarios", c.adaptive.GetRecommendedScenarios)
		adaptive.POST("/recommendation/apply", c.adaptive.Apply)
	}

	coaching := rg.Group("/coaching")
	{
		coaching.POST("/hints", c.coaching.GenerateHints)
		coaching.POST("/analysis", c.coaching.AnalyzeConversation)
		coaching.POST("/alternatives", c.coaching.GenerateAlternatives)
		coaching.POST("/tips", c.coaching.GenerateTips)
	}
}

func (a *App) registerManagerRoutes(rg *gin.RouterGroup, c *controllers) {
	manager := rg.Group("/manager")
	manager.Use(middleware.RoleMiddleware(model.LDManager, model.Recruiter))
	{
		manager.GET("/dashboard/team", c.dashboard.GetTeamOverview)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.LDManager))
	{
		admin.GET("/users", c.user.ListUsers)
		admin.PATCH("/users/:id/disabled", c.user.SetDisabled)

		admin.GET("/scenarios", c.scenario.List)
		admin.POST("/scenarios", c.scenario.Create)
		admin.PUT("/scenarios/:id", c.scenario.Update)
		admin.DELETE("/scenarios/:id", c.scenario.Delete)
	}
}
