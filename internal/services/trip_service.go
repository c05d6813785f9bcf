package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/fare"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

const seatMapCacheTTL = 30 * time.Second

// TripService manages trips and their materialized seat inventory
type TripService struct {
	tripRepo   *database.TripRepository
	seatRepo   *database.TripSeatRepository
	layoutRepo *database.VehicleLayoutRepository
	events     *EventPublisher
	rdb        *redis.Client
	logger     *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(
	tripRepo *database.TripRepository,
	seatRepo *database.TripSeatRepository,
	layoutRepo *database.VehicleLayoutRepository,
	events *EventPublisher,
	rdb *redis.Client,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		tripRepo:   tripRepo,
		seatRepo:   seatRepo,
		layoutRepo: layoutRepo,
		events:     events,
		rdb:        rdb,
		logger:     logger,
	}
}

// CreateTrip creates a trip and materializes its seat inventory from the
// layout template. Each bookable seat gets its price computed once here;
// driver cells are never materialized. Seats and trip are inserted in one
// transaction.
func (s *TripService) CreateTrip(req *models.CreateTripRequest) (*models.Trip, error) {
	layoutID, err := uuid.Parse(req.VehicleLayoutID)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle layout id: %w", err)
	}

	layout, err := s.layoutRepo.GetByID(layoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle layout: %w", err)
	}
	if layout == nil {
		return nil, fmt.Errorf("vehicle layout %s not found", req.VehicleLayoutID)
	}
	if !layout.IsActive {
		return nil, fmt.Errorf("vehicle layout %s is not active", req.VehicleLayoutID)
	}

	var seats []models.TripSeat
	for _, tmpl := range layout.Seats {
		if tmpl.SeatClass == models.SeatClassDriver {
			continue
		}
		price, err := fare.PriceForSeat(req.BasePrice, tmpl.SeatClass, req.WindowExtra, req.MiddleDiscount)
		if err != nil {
			return nil, fmt.Errorf("failed to price seat %s: %w", tmpl.SeatNumber, err)
		}
		seats = append(seats, models.TripSeat{
			SeatNumber: tmpl.SeatNumber,
			SeatClass:  tmpl.SeatClass,
			RowNumber:  tmpl.RowNumber,
			Position:   tmpl.Position,
			SeatPrice:  price,
			Status:     models.TripSeatStatusAvailable,
		})
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("vehicle layout %s has no bookable seats", req.VehicleLayoutID)
	}

	trip := &models.Trip{
		RouteName:         req.RouteName,
		Origin:            req.Origin,
		Destination:       req.Destination,
		VehicleLayoutID:   layoutID,
		DepartureDatetime: req.DepartureDatetime,
		BasePrice:         req.BasePrice,
		WindowExtra:       req.WindowExtra,
		MiddleDiscount:    req.MiddleDiscount,
		AdvancePercentage: req.AdvancePercentage,
		TotalSeats:        len(seats),
	}

	if err := s.tripRepo.CreateTripWithSeats(trip, seats, s.seatRepo); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id":    trip.ID,
		"route_name": trip.RouteName,
		"seats":      len(seats),
	}).Info("Trip created")

	return trip, nil
}

// GetTrip returns a trip by id
func (s *TripService) GetTrip(tripID string) (*models.Trip, error) {
	return s.tripRepo.GetByID(tripID)
}

// ListUpcomingTrips returns scheduled trips that have not departed yet
func (s *TripService) ListUpcomingTrips(limit, offset int) ([]models.Trip, error) {
	return s.tripRepo.ListUpcoming(limit, offset)
}

// GetTripWithSeatMap returns the trip and its seat map grouped by row. The
// map is served from a short-lived cache; every seat state change
// invalidates it, the TTL only bounds staleness if an invalidation is lost.
func (s *TripService) GetTripWithSeatMap(ctx context.Context, tripID string) (*models.TripWithSeatMap, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, SeatMapCacheKey(tripID)).Bytes()
		if err == nil {
			var result models.TripWithSeatMap
			if err := json.Unmarshal(cached, &result); err == nil {
				return &result, nil
			}
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("Seat map cache read failed")
		}
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.GetByTripID(tripID)
	if err != nil {
		return nil, err
	}

	result := &models.TripWithSeatMap{
		Trip:    *trip,
		SeatMap: models.BuildSeatMap(seats),
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := s.rdb.Set(ctx, SeatMapCacheKey(tripID), payload, seatMapCacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("Seat map cache write failed")
			}
		}
	}

	return result, nil
}

// GetSeatSummary returns aggregate seat availability counts for a trip
func (s *TripService) GetSeatSummary(tripID string) (*models.TripSeatSummary, error) {
	return s.seatRepo.GetSummary(tripID)
}

// UpdateTripStatus applies an admin lifecycle transition to a trip
func (s *TripService) UpdateTripStatus(tripID string, status models.TripStatus) error {
	return s.tripRepo.UpdateStatus(tripID, status)
}

// DeleteTrip removes a trip and its seats
func (s *TripService) DeleteTrip(tripID string) error {
	return s.tripRepo.Delete(tripID)
}

// BlockSeats takes seats off sale for operational reasons. Only available
// seats can be blocked; booked seats are skipped, never overridden.
func (s *TripService) BlockSeats(ctx context.Context, tripID string, req *models.BlockSeatsRequest, blockedByUserID string) (int, error) {
	blocked, err := s.seatRepo.BlockSeats(tripID, req.SeatIDs, blockedByUserID, req.Reason)
	if err != nil {
		return 0, err
	}
	if blocked > 0 {
		s.events.PublishSeatEvent(ctx, SeatEvent{
			Type:    "seats_blocked",
			TripID:  tripID,
			SeatIDs: req.SeatIDs,
		})
		s.events.InvalidateSeatMap(ctx, tripID)
	}
	s.logger.WithFields(logrus.Fields{
		"trip_id":   tripID,
		"requested": len(req.SeatIDs),
		"blocked":   blocked,
	}).Info("Seats blocked")
	return blocked, nil
}

// UnblockSeats returns manually blocked seats to sale
func (s *TripService) UnblockSeats(ctx context.Context, tripID string, req *models.UnblockSeatsRequest) (int, error) {
	unblocked, err := s.seatRepo.UnblockSeats(tripID, req.SeatIDs)
	if err != nil {
		return 0, err
	}
	if unblocked > 0 {
		s.events.PublishSeatEvent(ctx, SeatEvent{
			Type:    "seats_unblocked",
			TripID:  tripID,
			SeatIDs: req.SeatIDs,
		})
		s.events.InvalidateSeatMap(ctx, tripID)
	}
	return unblocked, nil
}
