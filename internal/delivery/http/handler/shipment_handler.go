package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"package-tracking/internal/usecase/shipment"
	appErrors "package-tracking/pkg/errors"
	"package-tracking/pkg/utils"
)

// ShipmentHandler serves the admin record operations.
type ShipmentHandler struct {
	service *shipment.Service
}

func NewShipmentHandler(service *shipment.Service) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

func (h *ShipmentHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	records := router.Group("/records")
	{
		records.GET("", h.ListShipments)
		records.POST("", h.CreateShipment)
		records.GET("/:id", h.GetShipment)
		records.PATCH("/:id", h.UpdateShipment)
		records.DELETE("/:id", h.DeleteShipment)
		records.POST("/:id/next", h.AdvanceShipment)
		records.POST("/:id/location", h.UpdateLocation)
	}
}

func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var req shipment.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.CreateShipment(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Shipment created", result)
}

func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.service.ListShipments(c.Request.Context(), page, limit)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipments retrieved", result)
}

func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	result, err := h.service.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment retrieved", result)
}

func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	var req shipment.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateShipment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment updated", result)
}

func (h *ShipmentHandler) AdvanceShipment(c *gin.Context) {
	result, err := h.service.AdvanceShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment advanced", result)
}

func (h *ShipmentHandler) UpdateLocation(c *gin.Context) {
	var req shipment.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, appErrors.CodeBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateLocation(c.Request.Context(), c.Param("id"), &req, shipment.ActorAdmin)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Location updated", result)
}

// DeleteShipment is idempotent: deleting a missing record reports deletedCount 0.
func (h *ShipmentHandler) DeleteShipment(c *gin.Context) {
	result, err := h.service.DeleteShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment deleted", result)
}
