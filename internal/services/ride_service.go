package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// RideService manages ad-hoc point-to-point ride requests. Rides have no
// seat inventory and no payment flow; they are dispatched manually.
type RideService struct {
	rideRepo *database.RideRepository
	logger   *logrus.Logger
}

// NewRideService creates a new RideService
func NewRideService(rideRepo *database.RideRepository, logger *logrus.Logger) *RideService {
	return &RideService{
		rideRepo: rideRepo,
		logger:   logger,
	}
}

// CreateRide records a new ride request
func (s *RideService) CreateRide(req *models.CreateRideRequest) (*models.Ride, error) {
	if !req.VehicleType.Valid() {
		return nil, fmt.Errorf("unknown vehicle type %q", req.VehicleType)
	}

	ride := &models.Ride{
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		VehicleType:        req.VehicleType,
		PickupAddress:      req.PickupAddress,
		DestinationAddress: req.DestinationAddress,
		PickupDatetime:     req.PickupDatetime,
		Notes:              req.Notes,
	}
	if err := s.rideRepo.Create(ride); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ride_id":      ride.ID,
		"vehicle_type": ride.VehicleType,
	}).Info("Ride requested")

	return ride, nil
}

// GetRide returns a ride by id
func (s *RideService) GetRide(rideID string) (*models.Ride, error) {
	return s.rideRepo.GetByID(rideID)
}

// ListRides returns rides in the given status, newest first
func (s *RideService) ListRides(status models.RideStatus, limit, offset int) ([]models.Ride, error) {
	return s.rideRepo.ListByStatus(status, limit, offset)
}

// AssignDriver assigns a driver to a requested ride and moves it to accepted
func (s *RideService) AssignDriver(rideID string, req *models.AssignDriverRequest) (*models.Ride, error) {
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("invalid driver id: %w", err)
	}
	if err := s.rideRepo.AssignDriver(rideID, driverID); err != nil {
		return nil, err
	}
	return s.rideRepo.GetByID(rideID)
}

// UpdateRideStatus transitions a ride's lifecycle status
func (s *RideService) UpdateRideStatus(rideID string, status models.RideStatus) (*models.Ride, error) {
	switch status {
	case models.RideStatusCompleted, models.RideStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: rides can only be completed or cancelled", models.ErrInvalidStatusTransition)
	}
	if err := s.rideRepo.UpdateStatus(rideID, status); err != nil {
		return nil, err
	}
	return s.rideRepo.GetByID(rideID)
}
