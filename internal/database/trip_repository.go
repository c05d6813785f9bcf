package database

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// TripRepository handles trips database operations
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, route_name, origin, destination, vehicle_layout_id,
	departure_datetime, base_price, window_extra, middle_discount,
	advance_percentage, total_seats, available_seats, status,
	created_at, updated_at`

// CreateTripWithSeats inserts the trip and its materialized priced seats in
// one transaction. Trip and seats are created together and only destroyed
// together by explicit deletion.
func (r *TripRepository) CreateTripWithSeats(trip *models.Trip, seats []models.TripSeat, seatRepo *TripSeatRepository) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO trips (
			route_name, origin, destination, vehicle_layout_id,
			departure_datetime, base_price, window_extra, middle_discount,
			advance_percentage, total_seats, available_seats, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, 'scheduled')
		RETURNING id, status, created_at, updated_at`

	err = tx.QueryRowx(query,
		trip.RouteName, trip.Origin, trip.Destination, trip.VehicleLayoutID,
		trip.DepartureDatetime, trip.BasePrice, trip.WindowExtra, trip.MiddleDiscount,
		trip.AdvancePercentage, len(seats),
	).Scan(&trip.ID, &trip.Status, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	trip.TotalSeats = len(seats)
	trip.AvailableSeats = len(seats)

	if err := seatRepo.CreateSeats(tx, trip.ID, seats); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a trip by id
func (r *TripRepository) GetByID(tripID string) (*models.Trip, error) {
	var trip models.Trip
	err := r.db.Get(&trip, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, tripID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// ListUpcoming returns bookable upcoming trips ordered by departure
func (r *TripRepository) ListUpcoming(limit, offset int) ([]models.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status = 'scheduled' AND departure_datetime >= NOW()
		ORDER BY departure_datetime ASC
		LIMIT $1 OFFSET $2`

	var trips []models.Trip
	err := r.db.Select(&trips, query, limit, offset)
	return trips, err
}

// UpdateStatus transitions a trip's lifecycle status
func (r *TripRepository) UpdateStatus(tripID string, status models.TripStatus) error {
	result, err := r.db.Exec(`
		UPDATE trips SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, tripID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrTripNotFound
	}
	return nil
}

// Delete removes a trip and cascades to its seats
func (r *TripRepository) Delete(tripID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trip_seats WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete trip seats: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrTripNotFound
	}

	return tx.Commit()
}
