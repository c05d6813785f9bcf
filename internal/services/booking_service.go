package services

import (
	"context"
	"fmt"

	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/fare"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingService orchestrates the pay-then-reserve flow: checkout opens a
// payment order without touching seat state, confirmation verifies the
// payment proof and then commits seats plus booking in one transaction.
type BookingService struct {
	bookingRepo *database.BookingRepository
	tripRepo    *database.TripRepository
	seatRepo    *database.TripSeatRepository
	auditRepo   *database.PaymentAuditRepository
	gateway     PaymentGateway
	events      *EventPublisher
	currency    string
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	tripRepo *database.TripRepository,
	seatRepo *database.TripSeatRepository,
	auditRepo *database.PaymentAuditRepository,
	gateway PaymentGateway,
	events *EventPublisher,
	currency string,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		seatRepo:    seatRepo,
		auditRepo:   auditRepo,
		gateway:     gateway,
		events:      events,
		currency:    currency,
		logger:      logger,
	}
}

// loadSelection resolves and validates a seat selection against the trip.
// Every seat must belong to the trip and be selectable at read time; the
// authoritative check still happens at reservation time inside the commit
// transaction.
func (s *BookingService) loadSelection(tripID string, seatIDs []string) (*models.Trip, []models.TripSeat, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, nil, err
	}
	if !trip.IsBookable() {
		return nil, nil, fmt.Errorf("trip %s is not open for booking", tripID)
	}

	seats, err := s.seatRepo.GetByIDs(seatIDs)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[string]bool, len(seats))
	var conflicting []string
	for _, seat := range seats {
		found[seat.ID] = true
		if seat.TripID != trip.ID {
			return nil, nil, fmt.Errorf("seat %s does not belong to trip %s", seat.ID, tripID)
		}
		if !seat.CanSelect() {
			conflicting = append(conflicting, seat.ID)
		}
	}
	for _, id := range seatIDs {
		if !found[id] {
			conflicting = append(conflicting, id)
		}
	}
	if len(conflicting) > 0 {
		return nil, nil, &models.SeatConflictError{ConflictingSeatIDs: conflicting}
	}

	return trip, seats, nil
}

// InitiateCheckout computes the fare for a seat selection and opens a
// payment order for the advance amount. No seat is mutated; the selection
// stays visible to everyone until payment is confirmed.
func (s *BookingService) InitiateCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	trip, seats, err := s.loadSelection(req.TripID, req.SeatIDs)
	if err != nil {
		return nil, err
	}

	total := fare.TotalForSelection(seats)
	advance, err := fare.AdvanceForTotal(total, trip.AdvancePercentage)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, advance, s.currency, "trip-"+trip.ID, map[string]string{
		"trip_id":        trip.ID,
		"customer_phone": req.Customer.Phone,
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"trip_id": trip.ID,
			"advance": advance,
		}).WithError(err).Error("Failed to create payment order")
		return nil, fmt.Errorf("failed to open payment order: %w", err)
	}

	s.recordAudit(&models.PaymentAudit{
		EventType: models.PaymentEventOrderCreated,
		OrderID:   &order.OrderID,
		TripID:    &trip.ID,
		Amount:    &advance,
		Currency:  &s.currency,
	})

	s.logger.WithFields(logrus.Fields{
		"trip_id":  trip.ID,
		"order_id": order.OrderID,
		"seats":    len(seats),
		"total":    total,
		"advance":  advance,
	}).Info("Checkout initiated")

	return &models.CheckoutResponse{
		OrderID:       order.OrderID,
		ProviderKey:   order.ProviderKey,
		TotalAmount:   total,
		AdvanceAmount: advance,
		Currency:      s.currency,
	}, nil
}

// ConfirmBooking commits a paid selection. The proof is verified first; only
// then are the seats reserved and the booking inserted, together, in one
// transaction. A booking row therefore only ever exists as
// (confirmed, paid|partial).
func (s *BookingService) ConfirmBooking(ctx context.Context, req *models.ConfirmBookingRequest) (*models.Booking, error) {
	if err := s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		detail := "signature mismatch on booking confirmation"
		s.recordAudit(&models.PaymentAudit{
			EventType:           models.PaymentEventVerificationFailed,
			OrderID:             &req.OrderID,
			PaymentID:           &req.PaymentID,
			TripID:              &req.TripID,
			Detail:              &detail,
			NeedsReconciliation: true,
		})
		s.logger.WithFields(logrus.Fields{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
			"trip_id":    req.TripID,
		}).Warn("Payment verification failed")
		return nil, models.ErrPaymentVerificationFailed
	}

	s.recordAudit(&models.PaymentAudit{
		EventType: models.PaymentEventVerificationSucceeded,
		OrderID:   &req.OrderID,
		PaymentID: &req.PaymentID,
		TripID:    &req.TripID,
	})

	trip, seats, err := s.loadSelection(req.TripID, req.SeatIDs)
	if err != nil {
		if conflict, ok := models.IsSeatConflict(err); ok {
			s.flagPaidConflict(req, conflict)
		} else {
			// payment went through but no booking can be made; transient
			// read errors included, reconciliation sorts out which
			s.flagPaidFailure(req, err)
		}
		return nil, err
	}

	// Amounts are recomputed server-side from the persisted seat prices; the
	// client never supplies a price.
	total := fare.TotalForSelection(seats)
	advance, err := fare.AdvanceForTotal(total, trip.AdvancePercentage)
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusPartial
	if advance >= total {
		paymentStatus = models.PaymentStatusPaid
	}

	booking := &models.Booking{
		TripID:         trip.ID,
		CustomerName:   req.Customer.Name,
		CustomerPhone:  req.Customer.Phone,
		CustomerEmail:  req.Customer.Email,
		TotalAmount:    total,
		AdvanceAmount:  advance,
		PaidAmount:     advance,
		BookingStatus:  models.BookingStatusConfirmed,
		PaymentStatus:  paymentStatus,
		PaymentOrderID: &req.OrderID,
		PaymentID:      &req.PaymentID,
		DeviceInfo:     req.DeviceInfo,
	}

	passengers := make(map[string]models.SeatPassenger, len(req.Passengers))
	for _, p := range req.Passengers {
		passengers[p.TripSeatID] = p
	}

	bookedSeats := make([]models.BookedSeat, len(seats))
	for i, seat := range seats {
		bookedSeats[i] = models.BookedSeat{
			TripSeatID: seat.ID,
			SeatNumber: seat.SeatNumber,
			SeatClass:  seat.SeatClass,
			SeatPrice:  seat.SeatPrice,
		}
		if p, ok := passengers[seat.ID]; ok {
			bookedSeats[i].PassengerName = p.Name
			bookedSeats[i].PassengerGender = p.Gender
		}
	}

	if err := s.bookingRepo.CreateBookingWithSeats(booking, bookedSeats, s.seatRepo); err != nil {
		if conflict, ok := models.IsSeatConflict(err); ok {
			s.flagPaidConflict(req, conflict)
			return nil, err
		}
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	booking.Seats = bookedSeats

	s.recordAudit(&models.PaymentAudit{
		EventType: models.PaymentEventBookingConfirmed,
		OrderID:   &req.OrderID,
		PaymentID: &req.PaymentID,
		BookingID: &booking.ID,
		TripID:    &trip.ID,
		Amount:    &advance,
		Currency:  &s.currency,
	})

	seatNumbers := make([]string, len(bookedSeats))
	for i, seat := range bookedSeats {
		seatNumbers[i] = seat.SeatNumber
	}
	s.events.PublishBookingEvent(ctx, BookingEvent{
		Type:             "booking_confirmed",
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           trip.ID,
		CustomerPhone:    booking.CustomerPhone,
		SeatNumbers:      seatNumbers,
		Status:           string(booking.BookingStatus),
		PaymentStatus:    string(booking.PaymentStatus),
	})
	s.events.InvalidateSeatMap(ctx, trip.ID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"trip_id":           trip.ID,
		"seats":             len(bookedSeats),
		"payment_status":    booking.PaymentStatus,
	}).Info("Booking confirmed")

	return booking, nil
}

// flagPaidConflict records the rare loss case: payment verified but the
// seats were taken by a racing booking. Money has moved with no booking to
// show for it, so the audit entry is flagged for refund.
func (s *BookingService) flagPaidConflict(req *models.ConfirmBookingRequest, conflict *models.SeatConflictError) {
	detail := conflict.Error()
	s.recordAudit(&models.PaymentAudit{
		EventType:           models.PaymentEventSeatConflictAfterPay,
		OrderID:             &req.OrderID,
		PaymentID:           &req.PaymentID,
		TripID:              &req.TripID,
		Detail:              &detail,
		NeedsReconciliation: true,
	})
	refundDetail := "payment captured but seats lost to a concurrent booking"
	s.recordAudit(&models.PaymentAudit{
		EventType:           models.PaymentEventRefundFlagged,
		OrderID:             &req.OrderID,
		PaymentID:           &req.PaymentID,
		TripID:              &req.TripID,
		Detail:              &refundDetail,
		NeedsReconciliation: true,
	})
	s.logger.WithFields(logrus.Fields{
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
		"trip_id":    req.TripID,
		"conflicts":  conflict.ConflictingSeatIDs,
	}).Error("Seat conflict after verified payment, flagged for refund")
}

// flagPaidFailure records a verified payment that could not be turned into a
// booking for a reason other than a seat conflict, e.g. the trip was deleted
// or closed between payment and confirmation.
func (s *BookingService) flagPaidFailure(req *models.ConfirmBookingRequest, cause error) {
	refundDetail := fmt.Sprintf("payment captured but booking could not be created: %v", cause)
	s.recordAudit(&models.PaymentAudit{
		EventType:           models.PaymentEventRefundFlagged,
		OrderID:             &req.OrderID,
		PaymentID:           &req.PaymentID,
		TripID:              &req.TripID,
		Detail:              &refundDetail,
		NeedsReconciliation: true,
	})
	s.logger.WithFields(logrus.Fields{
		"order_id":   req.OrderID,
		"payment_id": req.PaymentID,
		"trip_id":    req.TripID,
	}).WithError(cause).Error("Verified payment with no booking, flagged for refund")
}

func (s *BookingService) recordAudit(entry *models.PaymentAudit) {
	if err := s.auditRepo.Record(entry); err != nil {
		s.logger.WithFields(logrus.Fields{
			"event_type": entry.EventType,
		}).WithError(err).Error("Failed to record payment audit entry")
	}
}

// GetBooking returns a booking by id with its seats
func (s *BookingService) GetBooking(bookingID string) (*models.Booking, error) {
	return s.bookingRepo.GetByID(bookingID)
}

// GetBookingByReference returns a booking by its customer-facing reference
func (s *BookingService) GetBookingByReference(reference string) (*models.Booking, error) {
	return s.bookingRepo.GetByReference(reference)
}

// ListBookingsByPhone returns a customer's bookings, newest first
func (s *BookingService) ListBookingsByPhone(phone string, limit, offset int) ([]models.Booking, error) {
	return s.bookingRepo.ListByPhone(phone, limit, offset)
}

// CancelBooking cancels a booking and releases its seats back to available
// in one transaction. Cancelling an already-cancelled booking is a no-op.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.CancelBooking(bookingID, s.seatRepo)
	if err != nil {
		return nil, err
	}

	s.events.PublishBookingEvent(ctx, BookingEvent{
		Type:             "booking_cancelled",
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           booking.TripID,
		CustomerPhone:    booking.CustomerPhone,
		Status:           string(booking.BookingStatus),
		PaymentStatus:    string(booking.PaymentStatus),
	})
	s.events.InvalidateSeatMap(ctx, booking.TripID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
	}).Info("Booking cancelled")

	return booking, nil
}

// UpdateBookingStatus applies an admin transition. Cancellation routes
// through CancelBooking so the seats are released with it.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if status == models.BookingStatusCancelled {
		return s.CancelBooking(ctx, bookingID)
	}

	if !isValidBookingTransition(booking.BookingStatus, status) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidStatusTransition, booking.BookingStatus, status)
	}

	if err := s.bookingRepo.UpdateBookingStatus(bookingID, status); err != nil {
		return nil, err
	}
	booking.BookingStatus = status

	s.events.PublishBookingEvent(ctx, BookingEvent{
		Type:             "booking_status_changed",
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           booking.TripID,
		Status:           string(status),
	})

	return booking, nil
}

// isValidBookingTransition accepts only forward transitions. Bookings enter
// the store as confirmed; cancellation is handled separately.
func isValidBookingTransition(from, to models.BookingStatus) bool {
	switch from {
	case models.BookingStatusPending:
		return to == models.BookingStatusConfirmed
	case models.BookingStatusConfirmed:
		return to == models.BookingStatusCompleted
	}
	return false
}

// UpdatePaymentStatus applies an admin payment transition, e.g. marking the
// remaining balance collected on boarding
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, bookingID string, status models.PaymentStatus) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	if !isValidPaymentTransition(booking.PaymentStatus, status) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidStatusTransition, booking.PaymentStatus, status)
	}

	if err := s.bookingRepo.UpdatePaymentStatus(bookingID, status); err != nil {
		return nil, err
	}
	booking.PaymentStatus = status

	s.events.PublishBookingEvent(ctx, BookingEvent{
		Type:             "payment_status_changed",
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		TripID:           booking.TripID,
		PaymentStatus:    string(status),
	})

	return booking, nil
}

func isValidPaymentTransition(from, to models.PaymentStatus) bool {
	switch from {
	case models.PaymentStatusPartial:
		return to == models.PaymentStatusPaid || to == models.PaymentStatusRefunded
	case models.PaymentStatusPaid:
		return to == models.PaymentStatusRefunded
	}
	return false
}
