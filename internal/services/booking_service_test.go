package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	order     *models.PaymentOrder
	createErr error
	verifyErr error
}

func (s *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.order, nil
}

func (s *stubGateway) VerifySignature(orderID, paymentID, signature string) error {
	return s.verifyErr
}

func (s *stubGateway) VerifyWebhookSignature(body []byte, signature string) error {
	return s.verifyErr
}

func (s *stubGateway) ProviderKey() string { return "key_test" }
func (s *stubGateway) IsConfigured() bool  { return true }

func newBookingServiceTest(t *testing.T, gateway PaymentGateway) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	svc := NewBookingService(
		database.NewBookingRepository(sqlxDB),
		database.NewTripRepository(sqlxDB),
		database.NewTripSeatRepository(sqlxDB),
		database.NewPaymentAuditRepository(sqlxDB),
		gateway,
		NewEventPublisher(nil, quietLogger()),
		"INR",
		quietLogger(),
	)
	return svc, mock
}

func tripRows(t *testing.T, tripID string, advancePct int) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "route_name", "origin", "destination", "vehicle_layout_id",
		"departure_datetime", "base_price", "window_extra", "middle_discount",
		"advance_percentage", "total_seats", "available_seats", "status",
		"created_at", "updated_at",
	}).AddRow(
		tripID, "Colombo - Kandy", "Colombo", "Kandy", uuid.New(),
		now.Add(24*time.Hour), 1500, 200, 200,
		advancePct, 30, 28, "scheduled",
		now, now,
	)
}

func seatColumns() []string {
	return []string{
		"id", "trip_id", "seat_number", "seat_class", "row_number", "position",
		"seat_price", "status", "is_manually_blocked", "booked_seat_id",
		"block_reason", "blocked_by_user_id", "blocked_at", "created_at", "updated_at",
	}
}

func availableSeatRows(t *testing.T, tripID string) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows(seatColumns()).
		AddRow("seat-1", tripID, "1A", "window", 1, 1, 1700, "available", false, nil, nil, nil, nil, now, now).
		AddRow("seat-2", tripID, "1C", "aisle", 1, 3, 1300, "available", false, nil, nil, nil, nil, now, now)
}

func expectAudit(mock sqlmock.Sqlmock, eventType string) {
	mock.ExpectQuery(`INSERT INTO payment_audits`).
		WithArgs(eventType, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New(), time.Now()))
}

func TestInitiateCheckout(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gateway := &stubGateway{order: &models.PaymentOrder{
			OrderID: "order_123", Amount: 600, Currency: "INR", ProviderKey: "key_test",
		}}
		svc, mock := newBookingServiceTest(t, gateway)

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WithArgs("trip-1").
			WillReturnRows(tripRows(t, "trip-1", 20))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(availableSeatRows(t, "trip-1"))
		expectAudit(mock, "order_created")

		resp, err := svc.InitiateCheckout(context.Background(), &models.CheckoutRequest{
			TripID:   "trip-1",
			SeatIDs:  []string{"seat-1", "seat-2"},
			Customer: models.Customer{Name: "Nimal Perera", Phone: "0771234567"},
		})
		require.NoError(t, err)
		assert.Equal(t, "order_123", resp.OrderID)
		assert.Equal(t, int64(3000), resp.TotalAmount)
		// 20% of 3000, rounded half up
		assert.Equal(t, int64(600), resp.AdvanceAmount)
		assert.Equal(t, "INR", resp.Currency)
		assert.Equal(t, "key_test", resp.ProviderKey)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seat Already Booked", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(tripRows(t, "trip-1", 20))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns()).
				AddRow("seat-1", "trip-1", "1A", "window", 1, 1, 1700, "booked", false, nil, nil, nil, nil, now, now))

		_, err := svc.InitiateCheckout(context.Background(), &models.CheckoutRequest{
			TripID:   "trip-1",
			SeatIDs:  []string{"seat-1"},
			Customer: models.Customer{Name: "Nimal Perera", Phone: "0771234567"},
		})
		conflict, ok := models.IsSeatConflict(err)
		require.True(t, ok)
		assert.Equal(t, []string{"seat-1"}, conflict.ConflictingSeatIDs)
	})

	t.Run("Unknown Seat In Selection", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(tripRows(t, "trip-1", 20))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(availableSeatRows(t, "trip-1"))

		_, err := svc.InitiateCheckout(context.Background(), &models.CheckoutRequest{
			TripID:   "trip-1",
			SeatIDs:  []string{"seat-1", "seat-2", "seat-missing"},
			Customer: models.Customer{Name: "Nimal Perera", Phone: "0771234567"},
		})
		conflict, ok := models.IsSeatConflict(err)
		require.True(t, ok)
		assert.Contains(t, conflict.ConflictingSeatIDs, "seat-missing")
	})

	t.Run("Trip Not Found", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.InitiateCheckout(context.Background(), &models.CheckoutRequest{
			TripID:   "missing",
			SeatIDs:  []string{"seat-1"},
			Customer: models.Customer{Name: "Nimal Perera", Phone: "0771234567"},
		})
		assert.ErrorIs(t, err, models.ErrTripNotFound)
	})
}

func TestConfirmBooking(t *testing.T) {
	confirmReq := func() *models.ConfirmBookingRequest {
		return &models.ConfirmBookingRequest{
			TripID:    "trip-1",
			SeatIDs:   []string{"seat-1", "seat-2"},
			Customer:  models.Customer{Name: "Nimal Perera", Phone: "0771234567"},
			OrderID:   "order_123",
			PaymentID: "pay_456",
			Signature: "sig",
		}
	}

	t.Run("Verification Failure Commits Nothing", func(t *testing.T) {
		gateway := &stubGateway{verifyErr: models.ErrPaymentVerificationFailed}
		svc, mock := newBookingServiceTest(t, gateway)

		// the only database touch is the flagged audit entry
		expectAudit(mock, "verification_failed")

		_, err := svc.ConfirmBooking(context.Background(), confirmReq())
		assert.ErrorIs(t, err, models.ErrPaymentVerificationFailed)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success Partial Payment", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})
		now := time.Now()

		expectAudit(mock, "verification_succeeded")
		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(tripRows(t, "trip-1", 20))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(availableSeatRows(t, "trip-1"))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE trips`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("booking-1", now, now))
		mock.ExpectQuery(`INSERT INTO booked_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("bs-1", now))
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO booked_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("bs-2", now))
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectAudit(mock, "booking_confirmed")

		booking, err := svc.ConfirmBooking(context.Background(), confirmReq())
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, booking.BookingStatus)
		assert.Equal(t, models.PaymentStatusPartial, booking.PaymentStatus)
		assert.Equal(t, int64(3000), booking.TotalAmount)
		assert.Equal(t, int64(600), booking.AdvanceAmount)
		assert.Equal(t, int64(600), booking.PaidAmount)
		require.NotNil(t, booking.PaymentOrderID)
		assert.Equal(t, "order_123", *booking.PaymentOrderID)
		assert.Len(t, booking.Seats, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Full Advance Marks Paid", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})
		now := time.Now()

		expectAudit(mock, "verification_succeeded")
		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(tripRows(t, "trip-1", 100))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(sqlmock.NewRows(seatColumns()).
				AddRow("seat-1", "trip-1", "1A", "window", 1, 1, 1700, "available", false, nil, nil, nil, nil, now, now))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE trips`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("booking-1", now, now))
		mock.ExpectQuery(`INSERT INTO booked_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("bs-1", now))
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		expectAudit(mock, "booking_confirmed")

		req := confirmReq()
		req.SeatIDs = []string{"seat-1"}
		booking, err := svc.ConfirmBooking(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)
		assert.Equal(t, booking.TotalAmount, booking.PaidAmount)
	})

	t.Run("Conflict After Payment Flags Refund", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		expectAudit(mock, "verification_succeeded")
		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(tripRows(t, "trip-1", 20))
		mock.ExpectQuery(`SELECT (.+) FROM trip_seats`).
			WillReturnRows(availableSeatRows(t, "trip-1"))

		mock.ExpectBegin()
		// a racing booking took one seat between the snapshot and the commit
		mock.ExpectExec(`UPDATE trip_seats`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT id FROM trip_seats`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("seat-1"))
		mock.ExpectRollback()

		expectAudit(mock, "seat_conflict_after_payment")
		expectAudit(mock, "refund_flagged")

		_, err := svc.ConfirmBooking(context.Background(), confirmReq())
		conflict, ok := models.IsSeatConflict(err)
		require.True(t, ok)
		assert.Equal(t, []string{"seat-2"}, conflict.ConflictingSeatIDs)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trip Gone After Payment Flags Refund", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		expectAudit(mock, "verification_succeeded")
		// the trip was deleted between payment and confirmation; money has
		// moved with no booking, so reconciliation must hear about it
		mock.ExpectQuery(`SELECT (.+) FROM trips`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		expectAudit(mock, "refund_flagged")

		_, err := svc.ConfirmBooking(context.Background(), confirmReq())
		assert.ErrorIs(t, err, models.ErrTripNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBookingStatusTransitions(t *testing.T) {
	now := time.Now()
	confirmedBookingRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "booking_reference", "trip_id", "customer_name", "customer_phone",
			"customer_email", "total_amount", "advance_amount", "paid_amount",
			"booking_status", "payment_status", "payment_order_id", "payment_id",
			"device_info", "cancelled_at", "created_at", "updated_at",
		}).AddRow(
			"booking-1", "RL-20260901-ABCDEF", "trip-1", "Nimal Perera", "0771234567",
			nil, 3000, 600, 600,
			"confirmed", "partial", nil, nil,
			nil, nil, now, now,
		)
	}
	emptySeatRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "booking_id", "trip_seat_id", "seat_number", "seat_class",
			"seat_price", "passenger_name", "passenger_gender", "created_at",
		})
	}

	t.Run("Confirmed To Completed", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(confirmedBookingRows())
		mock.ExpectQuery(`SELECT (.+) FROM booked_seats`).
			WillReturnRows(emptySeatRows())
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.UpdateBookingStatus(context.Background(), "booking-1", models.BookingStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCompleted, booking.BookingStatus)
	})

	t.Run("Completed Cannot Go Back", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		rows := sqlmock.NewRows([]string{
			"id", "booking_reference", "trip_id", "customer_name", "customer_phone",
			"customer_email", "total_amount", "advance_amount", "paid_amount",
			"booking_status", "payment_status", "payment_order_id", "payment_id",
			"device_info", "cancelled_at", "created_at", "updated_at",
		}).AddRow(
			"booking-1", "RL-20260901-ABCDEF", "trip-1", "Nimal Perera", "0771234567",
			nil, 3000, 600, 600,
			"completed", "paid", nil, nil,
			nil, nil, now, now,
		)
		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT (.+) FROM booked_seats`).
			WillReturnRows(emptySeatRows())

		_, err := svc.UpdateBookingStatus(context.Background(), "booking-1", models.BookingStatusConfirmed)
		assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	})

	t.Run("Partial To Paid", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(confirmedBookingRows())
		mock.ExpectQuery(`SELECT (.+) FROM booked_seats`).
			WillReturnRows(emptySeatRows())
		mock.ExpectExec(`UPDATE bookings`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.UpdatePaymentStatus(context.Background(), "booking-1", models.PaymentStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)
	})

	t.Run("Paid Cannot Revert To Partial", func(t *testing.T) {
		svc, mock := newBookingServiceTest(t, &stubGateway{})

		rows := sqlmock.NewRows([]string{
			"id", "booking_reference", "trip_id", "customer_name", "customer_phone",
			"customer_email", "total_amount", "advance_amount", "paid_amount",
			"booking_status", "payment_status", "payment_order_id", "payment_id",
			"device_info", "cancelled_at", "created_at", "updated_at",
		}).AddRow(
			"booking-1", "RL-20260901-ABCDEF", "trip-1", "Nimal Perera", "0771234567",
			nil, 3000, 3000, 3000,
			"confirmed", "paid", nil, nil,
			nil, nil, now, now,
		)
		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT (.+) FROM booked_seats`).
			WillReturnRows(emptySeatRows())

		_, err := svc.UpdatePaymentStatus(context.Background(), "booking-1", models.PaymentStatusPartial)
		assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	})
}
