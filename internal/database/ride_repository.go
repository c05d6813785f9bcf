package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// RideRepository handles ad-hoc ride request operations
type RideRepository struct {
	db *sqlx.DB
}

// NewRideRepository creates a new RideRepository
func NewRideRepository(db *sqlx.DB) *RideRepository {
	return &RideRepository{db: db}
}

const rideColumns = `id, customer_name, customer_phone, vehicle_type,
	pickup_address, destination_address, pickup_datetime,
	status, driver_id, notes, created_at, updated_at`

// Create inserts a new ride request in the requested state
func (r *RideRepository) Create(ride *models.Ride) error {
	err := r.db.QueryRowx(`
		INSERT INTO rides (
			customer_name, customer_phone, vehicle_type,
			pickup_address, destination_address, pickup_datetime, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, 'requested', $7)
		RETURNING id, status, created_at, updated_at`,
		ride.CustomerName, ride.CustomerPhone, ride.VehicleType,
		ride.PickupAddress, ride.DestinationAddress, ride.PickupDatetime, ride.Notes,
	).Scan(&ride.ID, &ride.Status, &ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

// GetByID returns a ride by id
func (r *RideRepository) GetByID(rideID string) (*models.Ride, error) {
	var ride models.Ride
	err := r.db.Get(&ride, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ride not found")
		}
		return nil, err
	}
	return &ride, nil
}

// ListByStatus returns rides in a given status, newest first
func (r *RideRepository) ListByStatus(status models.RideStatus, limit, offset int) ([]models.Ride, error) {
	var rides []models.Ride
	err := r.db.Select(&rides, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	return rides, err
}

// AssignDriver sets the driver and moves the ride to accepted. A plain
// field update; dispatching is a human decision in the back office.
func (r *RideRepository) AssignDriver(rideID string, driverID uuid.UUID) error {
	result, err := r.db.Exec(`
		UPDATE rides
		SET driver_id = $1, status = 'accepted', updated_at = NOW()
		WHERE id = $2 AND status = 'requested'`,
		driverID, rideID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("ride not found or not in requested state")
	}
	return nil
}

// UpdateStatus transitions a ride's status
func (r *RideRepository) UpdateStatus(rideID string, status models.RideStatus) error {
	result, err := r.db.Exec(`
		UPDATE rides SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, rideID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("ride not found")
	}
	return nil
}
