package handler

import (
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "reviews-service"

func SetupRoutes(reviewHandler *ReviewHandler, authMiddleware *AuthMiddleware, health *HealthCheckHandler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", gin.WrapF(health.HealthCheck))
	router.GET("/health/liveness", gin.WrapF(health.Liveness))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reviews := router.Group("/reviews")
	{
		reviews.GET("/", reviewHandler.ListReviews)

		authenticated := reviews.Group("")
		authenticated.Use(authMiddleware.Authenticate())
		{
			authenticated.POST("/", authMiddleware.RequireRole(entity.RoleBuyer), reviewHandler.CreateReview)
			authenticated.DELETE("/:review_id", authMiddleware.RequireRole(entity.RoleBuyer, entity.RoleAdmin), reviewHandler.DeleteReview)
			authenticated.GET("/:review_id/history", authMiddleware.RequireRole(entity.RoleAdmin), reviewHandler.GetReviewHistory)
		}
	}

	return router
}
