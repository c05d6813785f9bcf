package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// TripSeatRepository handles trip_seats database operations. It is the only
// path for seat status mutations; reservation and release are conditional
// bulk updates so concurrent checkouts contend on a database-level guard,
// never on an application-level read-then-write.
type TripSeatRepository struct {
	db *sqlx.DB
}

// NewTripSeatRepository creates a new TripSeatRepository
func NewTripSeatRepository(db *sqlx.DB) *TripSeatRepository {
	return &TripSeatRepository{db: db}
}

// CreateSeats inserts the materialized seats for a trip inside the trip
// creation transaction. Prices are already computed; they never change after
// this point.
func (r *TripSeatRepository) CreateSeats(tx *sqlx.Tx, tripID string, seats []models.TripSeat) error {
	query := `
		INSERT INTO trip_seats (
			trip_id, seat_number, seat_class, row_number, position,
			seat_price, status, is_manually_blocked
		) VALUES ($1, $2, $3, $4, $5, $6, 'available', FALSE)
		RETURNING id, created_at, updated_at`

	for i := range seats {
		err := tx.QueryRowx(query,
			tripID,
			seats[i].SeatNumber,
			seats[i].SeatClass,
			seats[i].RowNumber,
			seats[i].Position,
			seats[i].SeatPrice,
		).Scan(&seats[i].ID, &seats[i].CreatedAt, &seats[i].UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trip seat %s: %w", seats[i].SeatNumber, err)
		}
	}

	return nil
}

// GetByTripID returns all seats for a trip, ordered by row then position
// for rendering. Snapshot read, no side effects.
func (r *TripSeatRepository) GetByTripID(tripID string) ([]models.TripSeat, error) {
	query := `
		SELECT id, trip_id, seat_number, seat_class, row_number, position,
		       seat_price, status, is_manually_blocked, booked_seat_id,
		       block_reason, blocked_by_user_id, blocked_at, created_at, updated_at
		FROM trip_seats
		WHERE trip_id = $1
		ORDER BY row_number, position`

	var seats []models.TripSeat
	if err := r.db.Select(&seats, query, tripID); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetByIDs returns multiple trip seats by id
func (r *TripSeatRepository) GetByIDs(ids []string) ([]models.TripSeat, error) {
	if len(ids) == 0 {
		return []models.TripSeat{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, trip_id, seat_number, seat_class, row_number, position,
		       seat_price, status, is_manually_blocked, booked_seat_id,
		       block_reason, blocked_by_user_id, blocked_at, created_at, updated_at
		FROM trip_seats
		WHERE id IN (?)
		ORDER BY row_number, position`, ids)
	if err != nil {
		return nil, err
	}

	query = r.db.Rebind(query)

	var seats []models.TripSeat
	if err := r.db.Select(&seats, query, args...); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetSummary returns seat availability counts for a trip
func (r *TripSeatRepository) GetSummary(tripID string) (*models.TripSeatSummary, error) {
	query := `
		SELECT
			trip_id,
			COUNT(*) as total_seats,
			COUNT(*) FILTER (WHERE status = 'available') as available_seats,
			COUNT(*) FILTER (WHERE status = 'booked') as booked_seats,
			COUNT(*) FILTER (WHERE status = 'blocked') as blocked_seats
		FROM trip_seats
		WHERE trip_id = $1
		GROUP BY trip_id`

	var summary models.TripSeatSummary
	err := r.db.Get(&summary, query, tripID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.TripSeatSummary{TripID: tripID}, nil
		}
		return nil, err
	}
	return &summary, nil
}

// ReserveSeats atomically transitions every seat in seatIDs from available
// to booked within the caller's transaction, decrementing the trip's
// available-seat counter. If any seat is not currently available the whole
// set fails with a SeatConflictError naming the lost seats; the caller must
// roll back, so no partial mutation ever commits.
func (r *TripSeatRepository) ReserveSeats(tx *sqlx.Tx, tripID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return fmt.Errorf("no seats to reserve")
	}

	query, args, err := sqlx.In(`
		UPDATE trip_seats
		SET status = 'booked', updated_at = NOW()
		WHERE id IN (?)
		  AND trip_id = ?
		  AND status = 'available'
		  AND is_manually_blocked = FALSE`, seatIDs, tripID)
	if err != nil {
		return fmt.Errorf("failed to build reserve query: %w", err)
	}

	query = tx.Rebind(query)
	result, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if int(rowsAffected) != len(seatIDs) {
		conflicting, cErr := r.findUnreservable(tripID, seatIDs)
		if cErr != nil || len(conflicting) == 0 {
			conflicting = seatIDs
		}
		return &models.SeatConflictError{ConflictingSeatIDs: conflicting}
	}

	counter, err := tx.Exec(`
		UPDATE trips
		SET available_seats = available_seats - $1, updated_at = NOW()
		WHERE id = $2 AND available_seats >= $1`,
		len(seatIDs), tripID)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}
	if n, _ := counter.RowsAffected(); n != 1 {
		return fmt.Errorf("available_seats underflow for trip %s", tripID)
	}

	return nil
}

// findUnreservable reports which of the requested seats cannot be reserved
// per the last committed state. Read outside the caller's transaction: inside
// it the winners are already marked booked and would be indistinguishable
// from seats lost to a racing booking.
func (r *TripSeatRepository) findUnreservable(tripID string, seatIDs []string) ([]string, error) {
	query, args, err := sqlx.In(`
		SELECT id FROM trip_seats
		WHERE id IN (?)
		  AND trip_id = ?
		  AND status = 'available'
		  AND is_manually_blocked = FALSE`, seatIDs, tripID)
	if err != nil {
		return nil, err
	}

	query = r.db.Rebind(query)
	var reservable []string
	if err := r.db.Select(&reservable, query, args...); err != nil {
		return nil, err
	}

	reservableSet := make(map[string]bool, len(reservable))
	for _, id := range reservable {
		reservableSet[id] = true
	}

	var conflicting []string
	for _, id := range seatIDs {
		if !reservableSet[id] {
			conflicting = append(conflicting, id)
		}
	}
	return conflicting, nil
}

// ReleaseSeats reverses a reservation within the caller's transaction.
// Used only when the owning booking is cancelled, never on payment failure;
// reservation happens only after payment succeeds.
func (r *TripSeatRepository) ReleaseSeats(tx *sqlx.Tx, tripID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
		UPDATE trip_seats
		SET status = 'available', booked_seat_id = NULL, updated_at = NOW()
		WHERE id IN (?) AND trip_id = ? AND status = 'booked'`, seatIDs, tripID)
	if err != nil {
		return fmt.Errorf("failed to build release query: %w", err)
	}

	query = tx.Rebind(query)
	result, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	released, _ := result.RowsAffected()
	if released == 0 {
		return nil
	}

	_, err = tx.Exec(`
		UPDATE trips
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE id = $2`,
		released, tripID)
	if err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}

	return nil
}

// LinkBookedSeat records the booked-seat row owning a trip seat. Part of the
// booking transaction; a booked seat without this link violates the
// cross-entity invariant.
func (r *TripSeatRepository) LinkBookedSeat(tx *sqlx.Tx, tripSeatID, bookedSeatID string) error {
	result, err := tx.Exec(`
		UPDATE trip_seats
		SET booked_seat_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'booked'`,
		bookedSeatID, tripSeatID)
	if err != nil {
		return fmt.Errorf("failed to link booked seat: %w", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		return fmt.Errorf("trip seat %s is not booked", tripSeatID)
	}
	return nil
}

// BlockSeats manually blocks available seats. The admin toggle is an
// ordinary contender for the same conditional update as reservations;
// whichever wins leaves the seat in a single well-defined state.
func (r *TripSeatRepository) BlockSeats(tripID string, seatIDs []string, blockedByUserID, reason string) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(`
		UPDATE trip_seats
		SET status = 'blocked',
			is_manually_blocked = TRUE,
			block_reason = ?,
			blocked_by_user_id = ?,
			blocked_at = ?,
			updated_at = ?
		WHERE id IN (?) AND trip_id = ? AND status = 'available'`,
		reason, blockedByUserID, time.Now(), time.Now(), seatIDs, tripID)
	if err != nil {
		return 0, err
	}

	query = tx.Rebind(query)
	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	blocked, _ := result.RowsAffected()
	if blocked > 0 {
		if _, err := tx.Exec(`
			UPDATE trips
			SET available_seats = available_seats - $1, updated_at = NOW()
			WHERE id = $2 AND available_seats >= $1`,
			blocked, tripID); err != nil {
			return 0, fmt.Errorf("failed to update available seats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(blocked), nil
}

// UnblockSeats reverses a manual block
func (r *TripSeatRepository) UnblockSeats(tripID string, seatIDs []string) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(`
		UPDATE trip_seats
		SET status = 'available',
			is_manually_blocked = FALSE,
			block_reason = NULL,
			blocked_by_user_id = NULL,
			blocked_at = NULL,
			updated_at = ?
		WHERE id IN (?) AND trip_id = ? AND status = 'blocked' AND is_manually_blocked = TRUE`,
		time.Now(), seatIDs, tripID)
	if err != nil {
		return 0, err
	}

	query = tx.Rebind(query)
	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	unblocked, _ := result.RowsAffected()
	if unblocked > 0 {
		if _, err := tx.Exec(`
			UPDATE trips
			SET available_seats = available_seats + $1, updated_at = NOW()
			WHERE id = $2`,
			unblocked, tripID); err != nil {
			return 0, fmt.Errorf("failed to update available seats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(unblocked), nil
}
