// Package billing contains the application services that turn gateway
// notifications into consistent local payment state.
package billing

import (
	"context"

	"github.com/backoffice/backend/internal/domain/billing"
)

// GatewayClient fetches authoritative payment details from the payment
// provider. The webhook payload only carries the payment id; everything
// else comes from this lookup.
type GatewayClient interface {
	GetPayment(ctx context.Context, paymentID string) (*billing.PaymentEvent, error)
}

// Notifier delivers user-facing notifications about settled payments.
// It is only invoked the first time a payment is processed; re-delivered
// webhooks never notify twice.
type Notifier interface {
	PaymentReceived(ctx context.Context, event *billing.PaymentEvent) error
}

// NopNotifier discards notifications. Used in tests and in deployments
// without a notification channel configured.
type NopNotifier struct{}

func (NopNotifier) PaymentReceived(ctx context.Context, event *billing.PaymentEvent) error {
	return nil
}

var _ Notifier = NopNotifier{}
