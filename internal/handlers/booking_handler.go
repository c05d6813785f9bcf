package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/roadlink/booking-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles checkout and booking confirmation endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// Checkout computes the fare for a seat selection and opens a payment order.
// POST /api/v1/bookings/checkout
func (h *BookingHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	response, err := h.bookingService.InitiateCheckout(c.Request.Context(), &req)
	if err != nil {
		if conflict, ok := models.IsSeatConflict(err); ok {
			c.JSON(http.StatusConflict, gin.H{
				"error":            "seats_unavailable",
				"conflicting_seats": conflict.ConflictingSeatIDs,
				"message":          "Some selected seats are no longer available. Please pick again.",
			})
			return
		}
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Checkout failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Confirm verifies the payment proof and commits the booking.
// POST /api/v1/bookings/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if userAgent := c.Request.UserAgent(); userAgent != "" {
		summary := utils.ParseUserAgent(userAgent).Summary()
		req.DeviceInfo = &summary
	}

	booking, err := h.bookingService.ConfirmBooking(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrPaymentVerificationFailed) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "payment_verification_failed",
				"message": "Payment could not be verified. If you were charged, contact support with your order id.",
			})
			return
		}
		if conflict, ok := models.IsSeatConflict(err); ok {
			// Payment went through but the seats are gone. The refund is
			// already flagged; tell the customer what happened.
			c.JSON(http.StatusConflict, gin.H{
				"error":            "seats_unavailable",
				"conflicting_seats": conflict.ConflictingSeatIDs,
				"message":          "Your seats were taken while paying. Your payment will be refunded.",
			})
			return
		}
		if errors.Is(err, models.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
			return
		}
		h.logger.WithError(err).Error("Booking confirmation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm booking"})
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetByReference returns a booking by its customer-facing reference.
// GET /api/v1/bookings/reference/:reference
func (h *BookingHandler) GetByReference(c *gin.Context) {
	booking, err := h.bookingService.GetBookingByReference(c.Param("reference"))
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load booking"})
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListByPhone returns a customer's bookings.
// GET /api/v1/bookings?phone=...
func (h *BookingHandler) ListByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone query parameter is required"})
		return
	}
	limit, offset := paginationParams(c)

	bookings, err := h.bookingService.ListBookingsByPhone(phone, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// Cancel cancels a booking and releases its seats.
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to cancel booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel booking"})
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateStatus applies an admin booking status transition.
// PUT /api/v1/admin/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, models.ErrInvalidStatusTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Failed to update booking status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update booking status"})
		}
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdatePaymentStatus applies an admin payment status transition.
// PUT /api/v1/admin/bookings/:id/payment-status
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		case errors.Is(err, models.ErrInvalidStatusTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Failed to update payment status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment status"})
		}
		return
	}
	c.JSON(http.StatusOK, booking)
}

// paginationParams reads limit/offset query parameters with sane bounds
func paginationParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
