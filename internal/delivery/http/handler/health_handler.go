package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"package-tracking/internal/logger"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store HealthChecker
}

func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "Record store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Service is running",
	})
}
