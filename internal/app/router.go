package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"cybersafe_backend/internal/config"
	"cybersafe_backend/internal/middleware"
	"cybersafe_backend/pkg/monitoring"
	"cybersafe_backend/pkg/security"
	"cybersafe_backend/pkg/tracing"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/modules", c.content.ListModules)
		public.GET("/modules/:id", c.content.GetModule)
		public.GET("/badges", c.content.ListBadges)

		// Progress documents by key. Peer instances sync against these.
		public.GET("/progress/:userId", c.progress.GetDocument)
		public.POST("/progress/:userId", c.progress.PutDocument)
		public.POST("/progress/:userId/reset", c.progress.ResetDocument)

		public.POST("/record-completion", c.completion.RecordCompletion)
	}

	// Signed-in learner routes.
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authed.GET("/profile", c.auth.GetProfile)
		authed.POST("/logout", c.auth.Logout)
		authed.GET("/events", c.events.Connect)

		me := authed.Group("/me/progress")
		{
			me.GET("", c.progress.GetMine)
			me.POST("/slide", c.progress.SlideViewed)
			me.POST("/quiz", c.progress.QuizResult)
			me.POST("/challenge", c.progress.ChallengeDone)
			me.POST("/complete-module", c.progress.CompleteModule)
			me.POST("/points", c.progress.AddPoints)
			me.POST("/badge", c.progress.AwardBadge)
			me.POST("/reset", c.progress.ResetMine)
		}
	}

	// Instructor routes.
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.GET("/users", c.admin.ListUsers)
		admin.POST("/users", c.admin.CreateAdmin)
		admin.GET("/certificates", c.admin.ListCertified)
		admin.POST("/users/:id/certificate", c.admin.IssueCertificate)
		admin.GET("/completion-records", c.completion.ListCompletions)
		admin.GET("/completion-records/:accessId", c.completion.GetCompletion)
	}
}
