package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roadlink/booking-backend/internal/config"
	"github.com/roadlink/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the payment confirmation bridge: an order is opened for
// the advance amount, the customer pays out-of-band, and the resulting proof
// must be verified server-side before any booking is committed.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error)
	VerifySignature(orderID, paymentID, signature string) error
	VerifyWebhookSignature(body []byte, signature string) error
	ProviderKey() string
	IsConfigured() bool
}

// RazorpayService implements PaymentGateway against the Razorpay orders API
type RazorpayService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// NewRazorpayService creates a new RazorpayService
func NewRazorpayService(cfg *config.PaymentConfig, logger *logrus.Logger) *RazorpayService {
	return &RazorpayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// razorpayOrderRequest is the order creation payload. Amount is in the
// smallest currency subunit.
type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a gateway order for the given amount (whole currency
// units). No seat state is touched here; seats stay visible to other
// customers until payment is confirmed.
func (s *RazorpayService) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing key credentials")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amount)
	}

	reqBody := razorpayOrderRequest{
		Amount:   amount * 100, // gateway expects subunits
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/orders", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	s.logger.WithFields(logrus.Fields{
		"receipt":  receipt,
		"amount":   amount,
		"currency": currency,
	}).Info("Creating payment order")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call payment gateway")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr razorpayErrorResponse
		if err := json.Unmarshal(body, &gwErr); err == nil && gwErr.Error.Description != "" {
			return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, gwErr.Error.Description)
		}
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var orderResp razorpayOrderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if orderResp.ID == "" {
		return nil, fmt.Errorf("payment gateway returned no order id")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderResp.ID,
		"receipt":  receipt,
	}).Info("Payment order created")

	return &models.PaymentOrder{
		OrderID:     orderResp.ID,
		Amount:      amount,
		Currency:    currency,
		ProviderKey: s.config.KeyID,
	}, nil
}

// VerifySignature verifies the payment proof returned to the client after a
// successful payment: HMAC-SHA256(orderID|paymentID) under the key secret.
// A mismatch means the proof does not come from the provider.
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return models.ErrPaymentVerificationFailed
	}

	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return models.ErrPaymentVerificationFailed
	}
	return nil
}

// VerifyWebhookSignature verifies a webhook body against the webhook secret
func (s *RazorpayService) VerifyWebhookSignature(body []byte, signature string) error {
	if signature == "" {
		return models.ErrPaymentVerificationFailed
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return models.ErrPaymentVerificationFailed
	}
	return nil
}

// ProviderKey returns the public key id clients use to open the payment page
func (s *RazorpayService) ProviderKey() string {
	return s.config.KeyID
}

// IsConfigured returns true if gateway credentials are present
func (s *RazorpayService) IsConfigured() bool {
	return s.config.KeyID != "" && s.config.KeySecret != ""
}
