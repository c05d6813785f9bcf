package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TripHandler handles trip and seat map endpoints
type TripHandler struct {
	tripService *services.TripService
	logger      *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripService *services.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// Create creates a trip and materializes its seat inventory.
// POST /api/v1/admin/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	trip, err := h.tripService.CreateTrip(&req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create trip")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// List returns upcoming trips.
// GET /api/v1/trips
func (h *TripHandler) List(c *gin.Context) {
	limit, offset := paginationParams(c)

	trips, err := h.tripService.ListUpcomingTrips(limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list trips")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trips"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// Get returns one trip.
// GET /api/v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trip"})
		return
	}
	c.JSON(http.StatusOK, trip)
}

// SeatMap returns the trip with its seat map grouped by row.
// GET /api/v1/trips/:id/seats
func (h *TripHandler) SeatMap(c *gin.Context) {
	result, err := h.tripService.GetTripWithSeatMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load seat map")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seat map"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SeatSummary returns aggregate availability counts for a trip.
// GET /api/v1/trips/:id/seats/summary
func (h *TripHandler) SeatSummary(c *gin.Context) {
	summary, err := h.tripService.GetSeatSummary(c.Param("id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load seat summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seat summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpdateStatus applies an admin trip lifecycle transition.
// PUT /api/v1/admin/trips/:id/status
func (h *TripHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.TripStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.tripService.UpdateTripStatus(c.Param("id"), req.Status); err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update trip status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update trip status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip status updated"})
}

// Delete removes a trip and its seats.
// DELETE /api/v1/admin/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.tripService.DeleteTrip(c.Param("id")); err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete trip")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete trip"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "trip deleted"})
}
