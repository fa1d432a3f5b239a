package routes

import (
	"peer-review-api/controllers"
	"peer-review-api/middleware"
	"peer-review-api/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *gin.Engine) {
	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Peer Review API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/profile/password", controllers.ChangePassword)

			// Review assignments
			assignments := protected.Group("/assignments")
			{
				assignments.GET("/mine", controllers.GetMyAssignments)
				assignments.GET("/:id/validate", controllers.ValidateAssignment)
				assignments.POST("/:id/review", controllers.SubmitReview)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}

			// Admin actions
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/contests/:id/assignments", controllers.CreateAssignmentBatch)
				admin.POST("/contests/:id/end-round", controllers.EndRound)
				admin.POST("/assignments/:id/reassign", controllers.ReassignReview)
				admin.POST("/submissions/:id/override", controllers.OverrideVerdict)
				admin.POST("/deadline-sweep", controllers.RunDeadlineSweep)
			}
		}
	}
}
