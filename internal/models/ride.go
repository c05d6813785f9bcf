package models

import (
	"time"

	"github.com/google/uuid"
)

// RideVehicleType represents the vehicle requested for an ad-hoc ride
type RideVehicleType string

const (
	RideVehicleBike      RideVehicleType = "bike"
	RideVehicleRickshaw  RideVehicleType = "rickshaw"
	RideVehicleCar       RideVehicleType = "car"
	RideVehicleAmbulance RideVehicleType = "ambulance"
)

// Valid reports whether the vehicle type is one of the known values
func (t RideVehicleType) Valid() bool {
	switch t {
	case RideVehicleBike, RideVehicleRickshaw, RideVehicleCar, RideVehicleAmbulance:
		return true
	}
	return false
}

// RideStatus represents an ad-hoc ride request's lifecycle
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// Ride is an ad-hoc point-to-point ride request. Driver assignment is a
// plain field update, not a scheduling decision.
type Ride struct {
	ID                 string          `json:"id" db:"id"`
	CustomerName       string          `json:"customer_name" db:"customer_name"`
	CustomerPhone      string          `json:"customer_phone" db:"customer_phone"`
	VehicleType        RideVehicleType `json:"vehicle_type" db:"vehicle_type"`
	PickupAddress      string          `json:"pickup_address" db:"pickup_address"`
	DestinationAddress string          `json:"destination_address" db:"destination_address"`
	PickupDatetime     time.Time       `json:"pickup_datetime" db:"pickup_datetime"`
	Status             RideStatus      `json:"status" db:"status"`
	DriverID           *uuid.UUID      `json:"driver_id,omitempty" db:"driver_id"`
	Notes              *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateRideRequest is the customer-facing ride request payload
type CreateRideRequest struct {
	CustomerName       string          `json:"customer_name" binding:"required"`
	CustomerPhone      string          `json:"customer_phone" binding:"required"`
	VehicleType        RideVehicleType `json:"vehicle_type" binding:"required"`
	PickupAddress      string          `json:"pickup_address" binding:"required"`
	DestinationAddress string          `json:"destination_address" binding:"required"`
	PickupDatetime     time.Time       `json:"pickup_datetime" binding:"required"`
	Notes              *string         `json:"notes,omitempty"`
}

// AssignDriverRequest assigns a driver to a ride
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// UpdateRideStatusRequest transitions a ride's status
type UpdateRideStatusRequest struct {
	Status RideStatus `json:"status" binding:"required"`
}
