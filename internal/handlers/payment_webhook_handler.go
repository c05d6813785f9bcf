package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roadlink/booking-backend/internal/database"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/roadlink/booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// PaymentWebhookHandler receives asynchronous payment notifications from the
// gateway. Webhooks are recorded to the audit trail only; bookings are never
// created from them, the confirm endpoint is the single commit path.
type PaymentWebhookHandler struct {
	gateway   services.PaymentGateway
	auditRepo *database.PaymentAuditRepository
	logger    *logrus.Logger
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler
func NewPaymentWebhookHandler(gateway services.PaymentGateway, auditRepo *database.PaymentAuditRepository, logger *logrus.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		gateway:   gateway,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Handle verifies and records a gateway webhook.
// POST /api/v1/payments/webhook
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.gateway.VerifyWebhookSignature(body, signature); err != nil {
		h.logger.WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	entity := payload.Payload.Payment.Entity
	detail := payload.Event
	entry := &models.PaymentAudit{
		EventType: models.PaymentEventWebhookReceived,
		Detail:    &detail,
	}
	if entity.OrderID != "" {
		entry.OrderID = &entity.OrderID
	}
	if entity.ID != "" {
		entry.PaymentID = &entity.ID
	}
	if entity.Amount > 0 {
		amount := entity.Amount / 100 // gateway reports subunits
		entry.Amount = &amount
	}

	if err := h.auditRepo.Record(entry); err != nil {
		h.logger.WithError(err).Error("Failed to record webhook audit entry")
		// 500 so the gateway retries delivery
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record webhook"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"event":    payload.Event,
		"order_id": entity.OrderID,
	}).Info("Payment webhook recorded")

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListReconciliation returns audit entries flagged for manual follow-up.
// GET /api/v1/admin/payments/reconciliation
func (h *PaymentWebhookHandler) ListReconciliation(c *gin.Context) {
	limit, _ := paginationParams(c)

	entries, err := h.auditRepo.ListNeedingReconciliation(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reconciliation entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reconciliation entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
