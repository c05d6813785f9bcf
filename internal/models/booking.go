package models

import (
	"time"
)

// BookingStatus represents the overall booking status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking represents a committed package-seat booking. A row is only ever
// inserted after payment is verified, already carrying (confirmed, paid|partial);
// there is no persisted draft state.
type Booking struct {
	ID               string        `json:"id" db:"id"`
	BookingReference string        `json:"booking_reference" db:"booking_reference"`
	TripID           string        `json:"trip_id" db:"trip_id"`
	CustomerName     string        `json:"customer_name" db:"customer_name"`
	CustomerPhone    string        `json:"customer_phone" db:"customer_phone"`
	CustomerEmail    *string       `json:"customer_email,omitempty" db:"customer_email"`
	TotalAmount      int64         `json:"total_amount" db:"total_amount"`
	AdvanceAmount    int64         `json:"advance_amount" db:"advance_amount"`
	PaidAmount       int64         `json:"paid_amount" db:"paid_amount"`
	BookingStatus    BookingStatus `json:"booking_status" db:"booking_status"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentOrderID   *string       `json:"payment_order_id,omitempty" db:"payment_order_id"`
	PaymentID        *string       `json:"payment_id,omitempty" db:"payment_id"`
	DeviceInfo       *string       `json:"device_info,omitempty" db:"device_info"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	Seats            []BookedSeat  `json:"seats,omitempty" db:"-"`
}

// BookedSeat links a booking to one reserved trip seat, optionally carrying
// passenger details for family bookings. It references the seat by id, not
// ownership; the trip owns the seat row.
type BookedSeat struct {
	ID              string    `json:"id" db:"id"`
	BookingID       string    `json:"booking_id" db:"booking_id"`
	TripSeatID      string    `json:"trip_seat_id" db:"trip_seat_id"`
	SeatNumber      string    `json:"seat_number" db:"seat_number"`
	SeatClass       SeatClass `json:"seat_class" db:"seat_class"`
	SeatPrice       int64     `json:"seat_price" db:"seat_price"`
	PassengerName   *string   `json:"passenger_name,omitempty" db:"passenger_name"`
	PassengerGender *string   `json:"passenger_gender,omitempty" db:"passenger_gender"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Customer carries the identity fields captured at checkout
type Customer struct {
	Name  string  `json:"name" binding:"required"`
	Phone string  `json:"phone" binding:"required"`
	Email *string `json:"email,omitempty"`
}

// SeatPassenger optionally names the passenger for one selected seat
type SeatPassenger struct {
	TripSeatID string  `json:"trip_seat_id" binding:"required"`
	Name       *string `json:"name,omitempty"`
	Gender     *string `json:"gender,omitempty"`
}

// CheckoutRequest opens a payment order for a seat selection.
// Seats are not mutated at this point; they stay visible to other customers
// until payment is confirmed.
type CheckoutRequest struct {
	TripID   string   `json:"trip_id" binding:"required"`
	SeatIDs  []string `json:"seat_ids" binding:"required,min=1"`
	Customer Customer `json:"customer" binding:"required"`
}

// CheckoutResponse returns the opened payment order and the amounts the
// customer will be charged
type CheckoutResponse struct {
	OrderID       string `json:"order_id"`
	ProviderKey   string `json:"provider_key"`
	TotalAmount   int64  `json:"total_amount"`
	AdvanceAmount int64  `json:"advance_amount"`
	Currency      string `json:"currency"`
}

// ConfirmBookingRequest commits a paid selection. The signature must be
// verified server-side before any seat is reserved.
type ConfirmBookingRequest struct {
	TripID     string          `json:"trip_id" binding:"required"`
	SeatIDs    []string        `json:"seat_ids" binding:"required,min=1"`
	Customer   Customer        `json:"customer" binding:"required"`
	OrderID    string          `json:"order_id" binding:"required"`
	PaymentID  string          `json:"payment_id" binding:"required"`
	Signature  string          `json:"signature" binding:"required"`
	Passengers []SeatPassenger `json:"passengers,omitempty"`
	DeviceInfo *string         `json:"-"`
}

// UpdateBookingStatusRequest is the admin transition request
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest is the admin payment transition request
type UpdatePaymentStatusRequest struct {
	Status PaymentStatus `json:"status" binding:"required"`
}
