package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/middleware"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TripSeatHandler handles admin seat block/unblock endpoints
type TripSeatHandler struct {
	tripService *services.TripService
	logger      *logrus.Logger
}

// NewTripSeatHandler creates a new TripSeatHandler
func NewTripSeatHandler(tripService *services.TripService, logger *logrus.Logger) *TripSeatHandler {
	return &TripSeatHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// Block takes seats off sale. Booked seats are skipped, never overridden.
// POST /api/v1/admin/trips/:id/seats/block
func (h *TripSeatHandler) Block(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.BlockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	blocked, err := h.tripService.BlockSeats(c.Request.Context(), c.Param("id"), &req, userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to block seats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block seats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocked":   blocked,
		"requested": len(req.SeatIDs),
	})
}

// Unblock returns manually blocked seats to sale.
// POST /api/v1/admin/trips/:id/seats/unblock
func (h *TripSeatHandler) Unblock(c *gin.Context) {
	var req models.UnblockSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	unblocked, err := h.tripService.UnblockSeats(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to unblock seats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock seats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unblocked": unblocked,
		"requested": len(req.SeatIDs),
	})
}
