package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// VehicleLayoutHandler handles layout template endpoints
type VehicleLayoutHandler struct {
	layoutService *services.VehicleLayoutService
	logger        *logrus.Logger
}

// NewVehicleLayoutHandler creates a new VehicleLayoutHandler
func NewVehicleLayoutHandler(layoutService *services.VehicleLayoutService, logger *logrus.Logger) *VehicleLayoutHandler {
	return &VehicleLayoutHandler{
		layoutService: layoutService,
		logger:        logger,
	}
}

// Create stores a new layout template.
// POST /api/v1/admin/layouts
func (h *VehicleLayoutHandler) Create(c *gin.Context) {
	var req models.CreateVehicleLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	layout, err := h.layoutService.CreateLayout(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, layout)
}

// Get returns one layout template with its seats.
// GET /api/v1/admin/layouts/:id
func (h *VehicleLayoutHandler) Get(c *gin.Context) {
	layout, err := h.layoutService.GetLayout(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, layout)
}

// List returns all active layout templates.
// GET /api/v1/admin/layouts
func (h *VehicleLayoutHandler) List(c *gin.Context) {
	layouts, err := h.layoutService.ListLayouts()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list layouts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list layouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"layouts": layouts, "count": len(layouts)})
}
