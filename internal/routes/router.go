package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"package-tracking/internal/config"
	"package-tracking/internal/delivery/http/handler"
	"package-tracking/internal/logger"
	"package-tracking/internal/middleware"
	"package-tracking/internal/usecase/shipment"
	appErrors "package-tracking/pkg/errors"
	"package-tracking/pkg/utils"
)

// SetupRoutes builds the HTTP engine. Background middleware work stops when ctx ends.
func SetupRoutes(ctx context.Context, cfg *config.Config, service *shipment.Service, store handler.HealthChecker) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Order: recovery, request ID, logging, security headers, CORS, size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestBody))
	router.Use(middleware.RateLimitMiddleware(ctx, cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.NoMethod(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, appErrors.CodeMethodNotAllowed, "Method not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, appErrors.CodeNotFound, "Route not found")
	})

	healthHandler := handler.NewHealthHandler(store)
	router.GET("/health", healthHandler.Health)

	trackingHandler := handler.NewTrackingHandler(service)
	shipmentHandler := handler.NewShipmentHandler(service)

	v1 := router.Group("/api/v1")
	{
		trackingHandler.RegisterRoutes(v1)

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminKeyMiddleware(&cfg.Admin))
		{
			shipmentHandler.RegisterAdminRoutes(admin)
		}
	}

	logger.Info("All routes initialized")
	return router
}
