package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentOrder is the gateway-side order opened at checkout. The customer
// pays against it out-of-band; the core later verifies the resulting proof.
type PaymentOrder struct {
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ProviderKey string `json:"provider_key"`
}

// PaymentEventType classifies payment audit entries
type PaymentEventType string

const (
	PaymentEventOrderCreated           PaymentEventType = "order_created"
	PaymentEventVerificationSucceeded  PaymentEventType = "verification_succeeded"
	PaymentEventVerificationFailed     PaymentEventType = "verification_failed"
	PaymentEventBookingConfirmed       PaymentEventType = "booking_confirmed"
	PaymentEventSeatConflictAfterPay   PaymentEventType = "seat_conflict_after_payment"
	PaymentEventWebhookReceived        PaymentEventType = "webhook_received"
	PaymentEventRefundFlagged          PaymentEventType = "refund_flagged"
	PaymentEventReconciliationMismatch PaymentEventType = "reconciliation_mismatch"
)

// PaymentAudit is an immutable audit entry for payment-gateway interactions.
// Verification mismatches are flagged for manual reconciliation because money
// may have moved without a booking.
type PaymentAudit struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	EventType           PaymentEventType `json:"event_type" db:"event_type"`
	OrderID             *string          `json:"order_id,omitempty" db:"order_id"`
	PaymentID           *string          `json:"payment_id,omitempty" db:"payment_id"`
	BookingID           *string          `json:"booking_id,omitempty" db:"booking_id"`
	TripID              *string          `json:"trip_id,omitempty" db:"trip_id"`
	Amount              *int64           `json:"amount,omitempty" db:"amount"`
	Currency            *string          `json:"currency,omitempty" db:"currency"`
	Detail              *string          `json:"detail,omitempty" db:"detail"`
	NeedsReconciliation bool             `json:"needs_reconciliation" db:"needs_reconciliation"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}
