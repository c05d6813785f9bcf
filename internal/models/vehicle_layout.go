package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VehicleLayout is a reusable seat layout template for a vehicle type
type VehicleLayout struct {
	ID         uuid.UUID           `json:"id" db:"id"`
	LayoutName string              `json:"layout_name" db:"layout_name"`
	TotalRows  int                 `json:"total_rows" db:"total_rows"`
	TotalSeats int                 `json:"total_seats" db:"total_seats"`
	IsActive   bool                `json:"is_active" db:"is_active"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" db:"updated_at"`
	Seats      []VehicleLayoutSeat `json:"seats,omitempty" db:"-"`
}

// VehicleLayoutSeat is one seat descriptor in a layout template
type VehicleLayoutSeat struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LayoutID   uuid.UUID `json:"layout_id" db:"layout_id"`
	RowNumber  int       `json:"row_number" db:"row_number"`
	Position   int       `json:"position" db:"position"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	SeatClass  SeatClass `json:"seat_class" db:"seat_class"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreateVehicleLayoutRequest creates a new layout template
type CreateVehicleLayoutRequest struct {
	LayoutName string                 `json:"layout_name" binding:"required"`
	Seats      []LayoutSeatDescriptor `json:"seats" binding:"required,min=1"`
}

// LayoutSeatDescriptor is the fixed-shape seat descriptor accepted at
// layout creation time
type LayoutSeatDescriptor struct {
	RowNumber  int       `json:"row_number" binding:"required,min=1"`
	Position   int       `json:"position" binding:"required,min=1"`
	SeatNumber string    `json:"seat_number" binding:"required"`
	SeatClass  SeatClass `json:"seat_class" binding:"required"`
}

// Validate enforces the layout invariants: known seat classes, unique seat
// numbers, unique (row, position) cells.
func (r *CreateVehicleLayoutRequest) Validate() error {
	seenNumbers := make(map[string]bool, len(r.Seats))
	seenCells := make(map[[2]int]bool, len(r.Seats))

	for _, seat := range r.Seats {
		if !seat.SeatClass.Valid() {
			return fmt.Errorf("seat %s: unknown seat class %q", seat.SeatNumber, seat.SeatClass)
		}
		if seenNumbers[seat.SeatNumber] {
			return fmt.Errorf("duplicate seat number %q in layout", seat.SeatNumber)
		}
		seenNumbers[seat.SeatNumber] = true

		cell := [2]int{seat.RowNumber, seat.Position}
		if seenCells[cell] {
			return fmt.Errorf("duplicate seat position row %d position %d", seat.RowNumber, seat.Position)
		}
		seenCells[cell] = true
	}
	return nil
}

// BookableSeats returns the descriptors that become sellable inventory.
// Driver seats are excluded entirely; they are never materialized or priced.
func (r *CreateVehicleLayoutRequest) BookableSeats() []LayoutSeatDescriptor {
	bookable := make([]LayoutSeatDescriptor, 0, len(r.Seats))
	for _, seat := range r.Seats {
		if seat.SeatClass == SeatClassDriver {
			continue
		}
		bookable = append(bookable, seat)
	}
	return bookable
}
