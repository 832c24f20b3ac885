package billing

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubjectType identifies what a gateway payment pays for.
type SubjectType string

const (
	SubjectInvoice          SubjectType = "invoice"
	SubjectPlanSubscription SubjectType = "plan_subscription"
)

// PaymentEvent is a normalized payment notification. The natural key is
// (ExternalPaymentID, TenantID): repeated deliveries of the same gateway
// event carry the same pair and must converge on one local record.
type PaymentEvent struct {
	// ExternalPaymentID is the gateway's stable payment id.
	ExternalPaymentID string

	TenantID uint

	// SubjectType plus InvoiceID or PlanSubscriptionID reference what the
	// payment settles.
	SubjectType        SubjectType
	InvoiceID          uint
	PlanSubscriptionID uint

	Status        PaymentStatus
	PaymentMethod string
	Amount        decimal.Decimal
	OccurredAt    time.Time

	// Reference fields carried in the gateway's external-reference blob.
	UserID     uint
	ProviderID uint
	Code       string
}

// Validate checks the event carries the fields reconciliation depends on.
func (e *PaymentEvent) Validate() error {
	if e.ExternalPaymentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT_EVENT", "external payment id is required")
	}
	if e.TenantID == 0 {
		return shared.NewDomainError("INVALID_PAYMENT_EVENT", "tenant id is required")
	}
	switch e.SubjectType {
	case SubjectInvoice:
		if e.InvoiceID == 0 {
			return shared.NewDomainError("INVALID_PAYMENT_EVENT", "invoice id is required for invoice payments")
		}
	case SubjectPlanSubscription:
		if e.PlanSubscriptionID == 0 {
			return shared.NewDomainError("INVALID_PAYMENT_EVENT", "plan subscription id is required for plan payments")
		}
	default:
		return shared.NewDomainError("INVALID_PAYMENT_EVENT", "unknown payment subject type")
	}
	return nil
}

// SubjectID returns the id of the referenced subject.
func (e *PaymentEvent) SubjectID() uint {
	if e.SubjectType == SubjectInvoice {
		return e.InvoiceID
	}
	return e.PlanSubscriptionID
}
