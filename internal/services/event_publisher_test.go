package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishBookingEvent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	publisher := NewEventPublisher(rdb, quietLogger())

	event := BookingEvent{
		Type:             "booking_confirmed",
		BookingID:        "booking-1",
		BookingReference: "RL-20260901-ABCDEF",
		TripID:           "trip-1",
		SeatNumbers:      []string{"1A", "1B"},
	}

	mock.Regexp().ExpectPublish(bookingEventsChannel, `.*booking_confirmed.*`).SetVal(1)

	publisher.PublishBookingEvent(context.Background(), event)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishSeatEvent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	publisher := NewEventPublisher(rdb, quietLogger())

	// payload must go over the wire as text, consumers pattern-match on it
	mock.Regexp().ExpectPublish(seatEventsChannel, `\{.*seats_blocked.*\}`).SetVal(1)

	publisher.PublishSeatEvent(context.Background(), SeatEvent{
		Type:    "seats_blocked",
		TripID:  "trip-1",
		SeatIDs: []string{"seat-1"},
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBookingEventPayload(t *testing.T) {
	// the published payload must round-trip as JSON with a timestamp set
	event := BookingEvent{Type: "booking_cancelled", BookingID: "booking-1"}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded BookingEvent
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "booking_cancelled", decoded.Type)
	assert.Equal(t, "booking-1", decoded.BookingID)
}

func TestPublishSwallowsErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	publisher := NewEventPublisher(rdb, quietLogger())

	mock.Regexp().ExpectPublish(bookingEventsChannel, `.*`).SetErr(assert.AnError)

	// must not panic or propagate; the booking is already durable
	publisher.PublishBookingEvent(context.Background(), BookingEvent{Type: "booking_confirmed"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishWithNilClient(t *testing.T) {
	publisher := NewEventPublisher(nil, quietLogger())

	publisher.PublishBookingEvent(context.Background(), BookingEvent{Type: "booking_confirmed"})
	publisher.PublishSeatEvent(context.Background(), SeatEvent{Type: "seats_blocked"})
	publisher.InvalidateSeatMap(context.Background(), "trip-1")
}

func TestInvalidateSeatMap(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	publisher := NewEventPublisher(rdb, quietLogger())

	mock.ExpectDel("seatmap:trip-1").SetVal(1)

	publisher.InvalidateSeatMap(context.Background(), "trip-1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMapCacheKey(t *testing.T) {
	assert.Equal(t, "seatmap:trip-1", SeatMapCacheKey("trip-1"))
}
