package billing

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// GatewayPayment is the local record of a payment reported by the gateway.
// At most one row exists per (payment_id, tenant_id); the composite unique
// index is the race-breaker for concurrent duplicate webhook deliveries.
type GatewayPayment struct {
	shared.TenantEntity

	// PaymentID is the gateway's external payment id, never the local
	// surrogate identity. Together with the tenant id it forms the natural
	// key; migration 000001 creates the composite unique index over
	// (payment_id, tenant_id).
	PaymentID string `gorm:"column:payment_id;not null;index" json:"payment_id"`

	SubjectType        SubjectType `gorm:"not null" json:"subject_type"`
	InvoiceID          uint        `gorm:"index" json:"invoice_id,omitempty"`
	PlanSubscriptionID uint        `gorm:"index" json:"plan_subscription_id,omitempty"`

	Status        PaymentStatus   `gorm:"not null;default:'pending'" json:"status"`
	PaymentMethod string          `gorm:"not null;default:''" json:"payment_method"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2)" json:"amount"`
	TransactionAt *time.Time      `json:"transaction_at,omitempty"`
}

// TableName sets the table name.
func (GatewayPayment) TableName() string {
	return "gateway_payments"
}

// NewGatewayPayment builds a local payment record from a normalized event.
// The identity stays zero until the record is persisted.
func NewGatewayPayment(event *PaymentEvent) *GatewayPayment {
	p := &GatewayPayment{
		PaymentID:          event.ExternalPaymentID,
		SubjectType:        event.SubjectType,
		InvoiceID:          event.InvoiceID,
		PlanSubscriptionID: event.PlanSubscriptionID,
		Status:             event.Status,
		PaymentMethod:      event.PaymentMethod,
		Amount:             event.Amount,
	}
	if !event.OccurredAt.IsZero() {
		at := event.OccurredAt
		p.TransactionAt = &at
	}
	p.SetTenantID(event.TenantID)
	return p
}

// ApplyEvent updates the mutable fields from a re-delivered event and
// reports whether anything changed. The natural key is never touched.
func (p *GatewayPayment) ApplyEvent(event *PaymentEvent) bool {
	changed := false
	if p.Status != event.Status {
		p.Status = event.Status
		changed = true
	}
	if event.PaymentMethod != "" && p.PaymentMethod != event.PaymentMethod {
		p.PaymentMethod = event.PaymentMethod
		changed = true
	}
	if !p.Amount.Equal(event.Amount) {
		p.Amount = event.Amount
		changed = true
	}
	if !event.OccurredAt.IsZero() && (p.TransactionAt == nil || !p.TransactionAt.Equal(event.OccurredAt)) {
		at := event.OccurredAt
		p.TransactionAt = &at
		changed = true
	}
	return changed
}
