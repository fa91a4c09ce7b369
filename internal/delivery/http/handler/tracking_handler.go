package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"package-tracking/internal/usecase/shipment"
	"package-tracking/pkg/utils"
)

// TrackingHandler serves the public, unauthenticated tracking view.
type TrackingHandler struct {
	service *shipment.Service
}

func NewTrackingHandler(service *shipment.Service) *TrackingHandler {
	return &TrackingHandler{service: service}
}

func (h *TrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/track", h.Track)
	router.GET("/track/:trackingId", h.Track)
}

// Track accepts the code as a path segment, ?trackingId= or ?id=.
func (h *TrackingHandler) Track(c *gin.Context) {
	code := c.Param("trackingId")
	if code == "" {
		code = c.Query("trackingId")
	}
	if code == "" {
		code = c.Query("id")
	}

	view, err := h.service.TrackShipment(c.Request.Context(), code)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}
