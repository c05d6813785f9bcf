package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// VehicleLayoutRepository handles vehicle layout template operations
type VehicleLayoutRepository struct {
	db *sqlx.DB
}

// NewVehicleLayoutRepository creates a new VehicleLayoutRepository
func NewVehicleLayoutRepository(db *sqlx.DB) *VehicleLayoutRepository {
	return &VehicleLayoutRepository{db: db}
}

// CreateLayout inserts the layout template and its seat descriptors in one
// transaction
func (r *VehicleLayoutRepository) CreateLayout(layout *models.VehicleLayout, seats []models.VehicleLayoutSeat) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowx(`
		INSERT INTO vehicle_layouts (layout_name, total_rows, total_seats, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at, updated_at`,
		layout.LayoutName, layout.TotalRows, layout.TotalSeats,
	).Scan(&layout.ID, &layout.IsActive, &layout.CreatedAt, &layout.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create layout: %w", err)
	}

	for i := range seats {
		seats[i].LayoutID = layout.ID
		err := tx.QueryRowx(`
			INSERT INTO vehicle_layout_seats (layout_id, row_number, position, seat_number, seat_class)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			seats[i].LayoutID, seats[i].RowNumber, seats[i].Position,
			seats[i].SeatNumber, seats[i].SeatClass,
		).Scan(&seats[i].ID, &seats[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert layout seat %s: %w", seats[i].SeatNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	layout.Seats = seats
	return nil
}

// GetByID returns a layout with its seat descriptors
func (r *VehicleLayoutRepository) GetByID(layoutID uuid.UUID) (*models.VehicleLayout, error) {
	var layout models.VehicleLayout
	err := r.db.Get(&layout, `
		SELECT id, layout_name, total_rows, total_seats, is_active, created_at, updated_at
		FROM vehicle_layouts WHERE id = $1`, layoutID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	err = r.db.Select(&layout.Seats, `
		SELECT id, layout_id, row_number, position, seat_number, seat_class, created_at
		FROM vehicle_layout_seats
		WHERE layout_id = $1
		ORDER BY row_number, position`, layoutID)
	if err != nil {
		return nil, err
	}

	return &layout, nil
}

// List returns all active layout templates without seats
func (r *VehicleLayoutRepository) List() ([]models.VehicleLayout, error) {
	var layouts []models.VehicleLayout
	err := r.db.Select(&layouts, `
		SELECT id, layout_name, total_rows, total_seats, is_active, created_at, updated_at
		FROM vehicle_layouts
		WHERE is_active = TRUE
		ORDER BY layout_name`)
	return layouts, err
}
