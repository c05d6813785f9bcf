package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GenerateBookingReference generates a unique booking reference.
// Format: RL-YYYYMMDD-XXXXXX (6 char hex).
func (r *BookingRepository) GenerateBookingReference() (string, error) {
	todayStr := time.Now().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		newRef := fmt.Sprintf("RL-%s-%s", todayStr, strings.ToUpper(hex.EncodeToString(randomBytes)))

		var count int
		if err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, newRef); err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if count == 0 {
			return newRef, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// CreateBookingWithSeats reserves the seats and inserts the booking and its
// booked-seat rows in ONE transaction. Either everything commits or nothing
// does: a crash between reservation and booking insert can never strand
// seats booked with no owning booking. On a seat conflict the transaction is
// rolled back and the SeatConflictError from the reservation is returned.
func (r *BookingRepository) CreateBookingWithSeats(
	booking *models.Booking,
	seats []models.BookedSeat,
	seatRepo *TripSeatRepository,
) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seatIDs := make([]string, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.TripSeatID
	}

	// The set-wide compare-and-swap; fails whole if any seat was taken.
	if err := seatRepo.ReserveSeats(tx, booking.TripID, seatIDs); err != nil {
		return err
	}

	bookingRef, err := r.GenerateBookingReference()
	if err != nil {
		return fmt.Errorf("failed to generate booking reference: %w", err)
	}
	booking.BookingReference = bookingRef

	query := `
		INSERT INTO bookings (
			booking_reference, trip_id, customer_name, customer_phone, customer_email,
			total_amount, advance_amount, paid_amount,
			booking_status, payment_status,
			payment_order_id, payment_id, device_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowx(query,
		booking.BookingReference, booking.TripID,
		booking.CustomerName, booking.CustomerPhone, booking.CustomerEmail,
		booking.TotalAmount, booking.AdvanceAmount, booking.PaidAmount,
		booking.BookingStatus, booking.PaymentStatus,
		booking.PaymentOrderID, booking.PaymentID, booking.DeviceInfo,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for i := range seats {
		seats[i].BookingID = booking.ID

		err := tx.QueryRowx(`
			INSERT INTO booked_seats (
				booking_id, trip_seat_id, seat_number, seat_class, seat_price,
				passenger_name, passenger_gender
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at`,
			seats[i].BookingID, seats[i].TripSeatID,
			seats[i].SeatNumber, seats[i].SeatClass, seats[i].SeatPrice,
			seats[i].PassengerName, seats[i].PassengerGender,
		).Scan(&seats[i].ID, &seats[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create booked seat %s: %w", seats[i].SeatNumber, err)
		}

		if err := seatRepo.LinkBookedSeat(tx, seats[i].TripSeatID, seats[i].ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.Seats = seats
	return nil
}

const bookingColumns = `id, booking_reference, trip_id, customer_name, customer_phone,
	customer_email, total_amount, advance_amount, paid_amount,
	booking_status, payment_status, payment_order_id, payment_id,
	device_info, cancelled_at, created_at, updated_at`

// GetByID retrieves a booking with its seats
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	booking := &models.Booking{}
	err := r.db.Get(booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}

	if err := r.loadSeats(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetByReference retrieves a booking by its customer-facing reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	booking := &models.Booking{}
	err := r.db.Get(booking, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference = $1`, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}

	if err := r.loadSeats(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByPhone retrieves bookings for a customer phone number, newest first
func (r *BookingRepository) ListByPhone(phone string, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.Select(&bookings, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE customer_phone = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, phone, limit, offset)
	return bookings, err
}

func (r *BookingRepository) loadSeats(booking *models.Booking) error {
	return r.db.Select(&booking.Seats, `
		SELECT id, booking_id, trip_seat_id, seat_number, seat_class, seat_price,
		       passenger_name, passenger_gender, created_at
		FROM booked_seats
		WHERE booking_id = $1
		ORDER BY seat_number`, booking.ID)
}

// UpdateBookingStatus applies an administrative booking transition.
// Cancellation must go through CancelBooking so seats are released in the
// same transaction.
func (r *BookingRepository) UpdateBookingStatus(bookingID string, status models.BookingStatus) error {
	result, err := r.db.Exec(`
		UPDATE bookings SET booking_status = $1, updated_at = NOW() WHERE id = $2`,
		status, bookingID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// UpdatePaymentStatus applies an administrative payment transition
func (r *BookingRepository) UpdatePaymentStatus(bookingID string, status models.PaymentStatus) error {
	result, err := r.db.Exec(`
		UPDATE bookings SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		status, bookingID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

// CancelBooking cancels a booking and releases its seats in one
// transaction. Cancellation without seat release would leave phantom-booked
// seats, so the two can never be split.
func (r *BookingRepository) CancelBooking(bookingID string, seatRepo *TripSeatRepository) (*models.Booking, error) {
	booking, err := r.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookingStatus == models.BookingStatusCancelled {
		return booking, nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE bookings
		SET booking_status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND booking_status <> 'cancelled'`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// a concurrent cancel won between the snapshot read and the
		// conditional update; treat it like the idempotent path above
		return r.GetByID(bookingID)
	}

	seatIDs := make([]string, len(booking.Seats))
	for i, seat := range booking.Seats {
		seatIDs[i] = seat.TripSeatID
	}
	if err := seatRepo.ReleaseSeats(tx, booking.TripID, seatIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.BookingStatus = models.BookingStatusCancelled
	return booking, nil
}
