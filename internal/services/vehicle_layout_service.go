package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// VehicleLayoutService manages reusable seat layout templates
type VehicleLayoutService struct {
	layoutRepo *database.VehicleLayoutRepository
	logger     *logrus.Logger
}

// NewVehicleLayoutService creates a new VehicleLayoutService
func NewVehicleLayoutService(layoutRepo *database.VehicleLayoutRepository, logger *logrus.Logger) *VehicleLayoutService {
	return &VehicleLayoutService{
		layoutRepo: layoutRepo,
		logger:     logger,
	}
}

// CreateLayout validates and stores a layout template. Driver cells are kept
// in the template for rendering but counted out of the sellable total.
func (s *VehicleLayoutService) CreateLayout(req *models.CreateVehicleLayoutRequest) (*models.VehicleLayout, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(req.BookableSeats()) == 0 {
		return nil, fmt.Errorf("layout %q has no bookable seats", req.LayoutName)
	}

	maxRow := 0
	seats := make([]models.VehicleLayoutSeat, len(req.Seats))
	for i, desc := range req.Seats {
		if desc.RowNumber > maxRow {
			maxRow = desc.RowNumber
		}
		seats[i] = models.VehicleLayoutSeat{
			RowNumber:  desc.RowNumber,
			Position:   desc.Position,
			SeatNumber: desc.SeatNumber,
			SeatClass:  desc.SeatClass,
		}
	}

	layout := &models.VehicleLayout{
		LayoutName: req.LayoutName,
		TotalRows:  maxRow,
		TotalSeats: len(req.BookableSeats()),
		IsActive:   true,
	}

	if err := s.layoutRepo.CreateLayout(layout, seats); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"layout_id":   layout.ID,
		"layout_name": layout.LayoutName,
		"total_seats": layout.TotalSeats,
	}).Info("Vehicle layout created")

	return layout, nil
}

// GetLayout returns a layout template with its seat descriptors
func (s *VehicleLayoutService) GetLayout(layoutID string) (*models.VehicleLayout, error) {
	id, err := uuid.Parse(layoutID)
	if err != nil {
		return nil, fmt.Errorf("invalid layout id: %w", err)
	}
	layout, err := s.layoutRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, fmt.Errorf("vehicle layout %s not found", layoutID)
	}
	return layout, nil
}

// ListLayouts returns all active layout templates
func (s *VehicleLayoutService) ListLayouts() ([]models.VehicleLayout, error) {
	return s.layoutRepo.List()
}
