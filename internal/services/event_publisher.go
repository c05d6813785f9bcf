package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	bookingEventsChannel = "booking_events"
	seatEventsChannel    = "seat_events"
)

// BookingEvent is the change feed record emitted after every booking
// transition. Consumers (notification workers, ops dashboards) subscribe to
// the feed; publishing is best-effort and never fails the transaction that
// produced the change.
type BookingEvent struct {
	Type             string    `json:"type"`
	BookingID        string    `json:"booking_id,omitempty"`
	BookingReference string    `json:"booking_reference,omitempty"`
	TripID           string    `json:"trip_id,omitempty"`
	CustomerPhone    string    `json:"customer_phone,omitempty"`
	SeatNumbers      []string  `json:"seat_numbers,omitempty"`
	Status           string    `json:"status,omitempty"`
	PaymentStatus    string    `json:"payment_status,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// SeatEvent is emitted when seat availability changes outside a booking,
// e.g. admin block/unblock
type SeatEvent struct {
	Type      string    `json:"type"`
	TripID    string    `json:"trip_id"`
	SeatIDs   []string  `json:"seat_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher fans out booking and seat changes over redis pub/sub and
// keeps the cached seat map coherent
type EventPublisher struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// NewEventPublisher creates a new EventPublisher
func NewEventPublisher(rdb *redis.Client, logger *logrus.Logger) *EventPublisher {
	return &EventPublisher{
		rdb:    rdb,
		logger: logger,
	}
}

// PublishBookingEvent publishes a booking change to the feed. Errors are
// logged and swallowed; the booking itself is already durable.
func (p *EventPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) {
	if p.rdb == nil {
		return
	}
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal booking event")
		return
	}

	if err := p.rdb.Publish(ctx, bookingEventsChannel, string(payload)).Err(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"event_type": event.Type,
			"booking_id": event.BookingID,
		}).WithError(err).Warn("Failed to publish booking event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"booking_id": event.BookingID,
	}).Debug("Booking event published")
}

// PublishSeatEvent publishes a seat availability change
func (p *EventPublisher) PublishSeatEvent(ctx context.Context, event SeatEvent) {
	if p.rdb == nil {
		return
	}
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal seat event")
		return
	}

	if err := p.rdb.Publish(ctx, seatEventsChannel, string(payload)).Err(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"event_type": event.Type,
			"trip_id":    event.TripID,
		}).WithError(err).Warn("Failed to publish seat event")
	}
}

// SeatMapCacheKey returns the cache key for a trip's seat map
func SeatMapCacheKey(tripID string) string {
	return fmt.Sprintf("seatmap:%s", tripID)
}

// InvalidateSeatMap drops the cached seat map for a trip after any seat
// state change
func (p *EventPublisher) InvalidateSeatMap(ctx context.Context, tripID string) {
	if p.rdb == nil {
		return
	}
	if err := p.rdb.Del(ctx, SeatMapCacheKey(tripID)).Err(); err != nil {
		p.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
		}).WithError(err).Warn("Failed to invalidate seat map cache")
	}
}
