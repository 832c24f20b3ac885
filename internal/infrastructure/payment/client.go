// Package payment implements the client for the payment gateway's REST API.
// Webhook notifications only carry a payment id; this client fetches the
// authoritative payment details and normalizes them into a PaymentEvent.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	appbilling "github.com/backoffice/backend/internal/application/billing"
	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var _ appbilling.GatewayClient = (*Client)(nil)

const (
	defaultBaseURL = "https://api.mercadopago.com"
	paymentPath    = "/v1/payments/%s"
)

// Config holds gateway API client configuration
type Config struct {
	// AccessToken authenticates against the gateway API.
	AccessToken string
	// BaseURL overrides the production API host, mainly for tests.
	BaseURL string
	// Timeout bounds a single API call.
	Timeout time.Duration
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("payment gateway access token is required")
	}
	return nil
}

// Client fetches payment details from the gateway
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new gateway API client
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// paymentResponse is the subset of the gateway payment resource the back
// office consumes.
type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount float64     `json:"transaction_amount"`
	PaymentMethodID   string      `json:"payment_method_id"`
	DateApproved      string      `json:"date_approved"`
	DateCreated       string      `json:"date_created"`
	ExternalReference string      `json:"external_reference"`
}

// externalReference is the JSON blob the back office attaches when creating
// a checkout; it ties the gateway payment back to tenant-local entities.
type externalReference struct {
	TenantID           uint   `json:"tenant_id"`
	SubjectType        string `json:"subject_type"`
	InvoiceID          uint   `json:"invoice_id,omitempty"`
	PlanSubscriptionID uint   `json:"plan_subscription_id,omitempty"`
	UserID             uint   `json:"user_id,omitempty"`
	ProviderID         uint   `json:"provider_id,omitempty"`
	Code               string `json:"code,omitempty"`
}

// GetPayment fetches a payment by id and normalizes it into a PaymentEvent.
// The gateway status is mapped onto the internal status vocabulary; unknown
// gateway statuses normalize to pending.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*billing.PaymentEvent, error) {
	url := c.config.BaseURL + fmt.Sprintf(paymentPath, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: building payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	// Correlation id for the gateway's request logs.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetching payment %s: %w", paymentID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: reading payment response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, shared.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, shared.ErrUnauthorized
	default:
		return nil, fmt.Errorf("gateway: payment lookup returned status %d", resp.StatusCode)
	}

	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("gateway: decoding payment response: %w", err)
	}

	return c.toEvent(paymentID, &payment)
}

func (c *Client) toEvent(paymentID string, payment *paymentResponse) (*billing.PaymentEvent, error) {
	var ref externalReference
	if payment.ExternalReference == "" {
		return nil, fmt.Errorf("gateway: payment %s carries no external reference", paymentID)
	}
	if err := json.Unmarshal([]byte(payment.ExternalReference), &ref); err != nil {
		return nil, fmt.Errorf("gateway: decoding external reference of payment %s: %w", paymentID, err)
	}

	event := &billing.PaymentEvent{
		ExternalPaymentID:  paymentID,
		TenantID:           ref.TenantID,
		SubjectType:        billing.SubjectType(ref.SubjectType),
		InvoiceID:          ref.InvoiceID,
		PlanSubscriptionID: ref.PlanSubscriptionID,
		Status:             billing.MapGatewayStatus(payment.Status),
		PaymentMethod:      payment.PaymentMethodID,
		Amount:             decimal.NewFromFloat(payment.TransactionAmount),
		UserID:             ref.UserID,
		ProviderID:         ref.ProviderID,
		Code:               ref.Code,
	}

	if at := parseGatewayTime(payment.DateApproved); at != nil {
		event.OccurredAt = *at
	} else if at := parseGatewayTime(payment.DateCreated); at != nil {
		event.OccurredAt = *at
	}

	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: payment %s produced an invalid event: %w", paymentID, err)
	}
	return event, nil
}

// parseGatewayTime parses the gateway's RFC3339-with-millis timestamps.
func parseGatewayTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
