package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// RideHandler handles ad-hoc ride request endpoints
type RideHandler struct {
	rideService *services.RideService
	logger      *logrus.Logger
}

// NewRideHandler creates a new RideHandler
func NewRideHandler(rideService *services.RideService, logger *logrus.Logger) *RideHandler {
	return &RideHandler{
		rideService: rideService,
		logger:      logger,
	}
}

// Create records a new ride request.
// POST /api/v1/rides
func (h *RideHandler) Create(c *gin.Context) {
	var req models.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ride, err := h.rideService.CreateRide(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ride)
}

// Get returns one ride.
// GET /api/v1/rides/:id
func (h *RideHandler) Get(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ride not found"})
		return
	}
	c.JSON(http.StatusOK, ride)
}

// List returns rides filtered by status, defaulting to requested.
// GET /api/v1/admin/rides?status=...
func (h *RideHandler) List(c *gin.Context) {
	status := models.RideStatus(c.DefaultQuery("status", string(models.RideStatusRequested)))
	limit, offset := paginationParams(c)

	rides, err := h.rideService.ListRides(status, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list rides")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rides"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides, "count": len(rides)})
}

// AssignDriver assigns a driver to a requested ride.
// PUT /api/v1/admin/rides/:id/driver
func (h *RideHandler) AssignDriver(c *gin.Context) {
	var req models.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ride, err := h.rideService.AssignDriver(c.Param("id"), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ride)
}

// UpdateStatus completes or cancels a ride.
// PUT /api/v1/admin/rides/:id/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateRideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ride, err := h.rideService.UpdateRideStatus(c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, models.ErrInvalidStatusTransition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to update ride status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ride status"})
		return
	}
	c.JSON(http.StatusOK, ride)
}
