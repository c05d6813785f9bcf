package models

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the lifecycle status of a scheduled trip
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusDeparted  TripStatus = "departed"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip represents one scheduled departure on one route with one
// materialized vehicle layout. Seat prices are computed once at creation
// from the pricing fields below and are immutable afterwards.
type Trip struct {
	ID                string     `json:"id" db:"id"`
	RouteName         string     `json:"route_name" db:"route_name"`
	Origin            string     `json:"origin" db:"origin"`
	Destination       string     `json:"destination" db:"destination"`
	VehicleLayoutID   uuid.UUID  `json:"vehicle_layout_id" db:"vehicle_layout_id"`
	DepartureDatetime time.Time  `json:"departure_datetime" db:"departure_datetime"`
	BasePrice         int64      `json:"base_price" db:"base_price"`
	WindowExtra       int64      `json:"window_extra" db:"window_extra"`
	MiddleDiscount    int64      `json:"middle_discount" db:"middle_discount"`
	AdvancePercentage int        `json:"advance_percentage" db:"advance_percentage"`
	TotalSeats        int        `json:"total_seats" db:"total_seats"`
	AvailableSeats    int        `json:"available_seats" db:"available_seats"`
	Status            TripStatus `json:"status" db:"status"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether the trip still accepts reservations
func (t *Trip) IsBookable() bool {
	return t.Status == TripStatusScheduled && t.DepartureDatetime.After(time.Now())
}

// CreateTripRequest creates a trip and materializes its seats from a layout
type CreateTripRequest struct {
	RouteName         string    `json:"route_name" binding:"required"`
	Origin            string    `json:"origin" binding:"required"`
	Destination       string    `json:"destination" binding:"required"`
	VehicleLayoutID   string    `json:"vehicle_layout_id" binding:"required,uuid"`
	DepartureDatetime time.Time `json:"departure_datetime" binding:"required"`
	BasePrice         int64     `json:"base_price" binding:"required,gte=0"`
	WindowExtra       int64     `json:"window_extra" binding:"gte=0"`
	MiddleDiscount    int64     `json:"middle_discount" binding:"gte=0"`
	AdvancePercentage int       `json:"advance_percentage" binding:"required,gte=1,lte=100"`
}

// TripWithSeatMap bundles a trip with its seat map for the storefront
type TripWithSeatMap struct {
	Trip    Trip         `json:"trip"`
	SeatMap []SeatMapRow `json:"seat_map"`
}
