package main

import (
	"github.com/gin-gonic/gin"
	"github.com/proofpay/backend/internal/handlers"
	"github.com/proofpay/backend/internal/middleware"
	"github.com/proofpay/backend/internal/models"
	"github.com/proofpay/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public, token-addressed surfaces.
	publicLimiter := middleware.NewRateLimiter(10, 20)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "proofpay"})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Client share-link surface (public, link is the credential)
		share := api.Group("/share", publicLimiter.Middleware())
		{
			share.GET("/:token", svc.shareHandler.Get)
			share.POST("/:token/comments", svc.shareHandler.AddComment)
			share.POST("/:token/approve", svc.shareHandler.Approve)
			share.POST("/:token/request-revision", svc.shareHandler.RequestRevision)
			share.POST("/:token/checkout", svc.shareHandler.Checkout)
		}

		// Payment processor callback (public)
		api.POST("/payments/callback", publicLimiter.Middleware(), svc.paymentHandler.Callback)

		// Download resolution (public, token is the credential)
		api.GET("/downloads/:token", publicLimiter.Middleware(), svc.downloadHandler.Resolve)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			dashboardHandler := handlers.NewDashboardHandler(models.GetDB())
			protected.GET("/dashboard/stats", dashboardHandler.GetStats)

			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			protected.PUT("/projects/:id/preview", svc.projectHandler.SetPreview)
			protected.PUT("/projects/:id/final-file", svc.projectHandler.SetFinalFile)
			protected.POST("/projects/:id/share", svc.projectHandler.SharePreview)
			protected.POST("/projects/:id/complete", svc.projectHandler.MarkCompleted)

			protected.GET("/projects/:id/comments", svc.projectHandler.ListComments)
			protected.GET("/projects/:id/payments", svc.projectHandler.ListPayments)
			protected.GET("/projects/:id/downloads", svc.projectHandler.ListDownloads)
			protected.GET("/projects/:id/activity", svc.projectHandler.ListActivity)
		}
	}
}
