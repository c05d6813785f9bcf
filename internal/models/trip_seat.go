package models

import (
	"time"
)

// SeatClass represents the class of a seat within a vehicle layout
type SeatClass string

const (
	SeatClassWindow SeatClass = "window"
	SeatClassMiddle SeatClass = "middle"
	SeatClassAisle  SeatClass = "aisle"
	SeatClassDriver SeatClass = "driver"
)

// Valid reports whether the seat class is one of the known values
func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassWindow, SeatClassMiddle, SeatClassAisle, SeatClassDriver:
		return true
	}
	return false
}

// TripSeatStatus represents the durable status of a trip seat.
// "selected" exists only client-side and is never persisted.
type TripSeatStatus string

const (
	TripSeatStatusAvailable TripSeatStatus = "available"
	TripSeatStatusBooked    TripSeatStatus = "booked"
	TripSeatStatusBlocked   TripSeatStatus = "blocked"
)

// TripSeat represents a priced seat on a specific trip
type TripSeat struct {
	ID                string         `json:"id" db:"id"`
	TripID            string         `json:"trip_id" db:"trip_id"`
	SeatNumber        string         `json:"seat_number" db:"seat_number"`
	SeatClass         SeatClass      `json:"seat_class" db:"seat_class"`
	RowNumber         int            `json:"row_number" db:"row_number"`
	Position          int            `json:"position" db:"position"`
	SeatPrice         int64          `json:"seat_price" db:"seat_price"`
	Status            TripSeatStatus `json:"status" db:"status"`
	IsManuallyBlocked bool           `json:"is_manually_blocked" db:"is_manually_blocked"`
	BookedSeatID      *string        `json:"booked_seat_id,omitempty" db:"booked_seat_id"`
	BlockReason       *string        `json:"block_reason,omitempty" db:"block_reason"`
	BlockedByUserID   *string        `json:"blocked_by_user_id,omitempty" db:"blocked_by_user_id"`
	BlockedAt         *time.Time     `json:"blocked_at,omitempty" db:"blocked_at"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// CanSelect reports whether a customer may pick this seat right now.
// Callers must re-validate at commit time; the status can change between
// the snapshot read and the reservation.
func (s *TripSeat) CanSelect() bool {
	return s.SeatClass != SeatClassDriver &&
		!s.IsManuallyBlocked &&
		s.Status == TripSeatStatusAvailable
}

// TripSeatSummary provides a quick overview of seat availability for a trip
type TripSeatSummary struct {
	TripID         string `json:"trip_id" db:"trip_id"`
	TotalSeats     int    `json:"total_seats" db:"total_seats"`
	AvailableSeats int    `json:"available_seats" db:"available_seats"`
	BookedSeats    int    `json:"booked_seats" db:"booked_seats"`
	BlockedSeats   int    `json:"blocked_seats" db:"blocked_seats"`
}

// SeatMapRow groups seats of one physical row for rendering
type SeatMapRow struct {
	RowNumber int        `json:"row_number"`
	Seats     []TripSeat `json:"seats"`
}

// BuildSeatMap groups an ordered seat list by row for rendering.
// Input must already be ordered by (row_number, position).
func BuildSeatMap(seats []TripSeat) []SeatMapRow {
	var rows []SeatMapRow
	for _, seat := range seats {
		if len(rows) == 0 || rows[len(rows)-1].RowNumber != seat.RowNumber {
			rows = append(rows, SeatMapRow{RowNumber: seat.RowNumber})
		}
		last := &rows[len(rows)-1]
		last.Seats = append(last.Seats, seat)
	}
	return rows
}

// BlockSeatsRequest is used by admins to block one or more seats
type BlockSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
	Reason  string   `json:"reason"`
}

// UnblockSeatsRequest is used by admins to unblock one or more seats
type UnblockSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
}
