package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/roadlink/booking-backend/internal/models"
)

// PaymentAuditRepository persists immutable payment audit entries. Rows are
// only ever inserted; reconciliation flags are queried by the back office.
type PaymentAuditRepository struct {
	db *sqlx.DB
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db *sqlx.DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Record inserts one audit entry
func (r *PaymentAuditRepository) Record(entry *models.PaymentAudit) error {
	return r.db.QueryRowx(`
		INSERT INTO payment_audits (
			event_type, order_id, payment_id, booking_id, trip_id,
			amount, currency, detail, needs_reconciliation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		entry.EventType, entry.OrderID, entry.PaymentID, entry.BookingID, entry.TripID,
		entry.Amount, entry.Currency, entry.Detail, entry.NeedsReconciliation,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListNeedingReconciliation returns entries flagged for manual review,
// oldest first
func (r *PaymentAuditRepository) ListNeedingReconciliation(limit int) ([]models.PaymentAudit, error) {
	var entries []models.PaymentAudit
	err := r.db.Select(&entries, `
		SELECT id, event_type, order_id, payment_id, booking_id, trip_id,
		       amount, currency, detail, needs_reconciliation, created_at
		FROM payment_audits
		WHERE needs_reconciliation = TRUE
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	return entries, err
}

// ListByOrderID returns the audit trail for one payment order
func (r *PaymentAuditRepository) ListByOrderID(orderID string) ([]models.PaymentAudit, error) {
	var entries []models.PaymentAudit
	err := r.db.Select(&entries, `
		SELECT id, event_type, order_id, payment_id, booking_id, trip_id,
		       amount, currency, detail, needs_reconciliation, created_at
		FROM payment_audits
		WHERE order_id = $1
		ORDER BY created_at ASC`, orderID)
	return entries, err
}
