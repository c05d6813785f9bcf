package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPaymentVerificationFailed is returned when a payment proof does not
// match the provider's record. It is deliberately distinct from a seat
// conflict: the remediation is reconciliation/refund, not re-selection.
var ErrPaymentVerificationFailed = errors.New("payment verification failed")

// ErrTripNotFound is returned when a trip id does not resolve
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound is returned when a booking id or reference does not resolve
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvalidStatusTransition is returned for disallowed admin transitions
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// SeatConflictError reports which seats of a requested set were no longer
// available. The whole reservation failed; no partial mutation happened.
type SeatConflictError struct {
	ConflictingSeatIDs []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats no longer available: %s", strings.Join(e.ConflictingSeatIDs, ", "))
}

// IsSeatConflict reports whether err is a seat conflict and returns it
func IsSeatConflict(err error) (*SeatConflictError, bool) {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
