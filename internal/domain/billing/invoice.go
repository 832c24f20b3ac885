package billing

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
)

// IsFinal reports whether no further status transitions are expected.
func (s InvoiceStatus) IsFinal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// Invoice is a tenant-scoped receivable. Its business fields are owned by
// the invoicing module; reconciliation only drives the payment-related
// status transition.
type Invoice struct {
	shared.TenantEntity

	Code       string          `gorm:"not null;index" json:"code"`
	CustomerID uint            `gorm:"index" json:"customer_id"`
	ProviderID uint            `gorm:"index" json:"provider_id"`
	Status     InvoiceStatus   `gorm:"not null;default:'PENDING'" json:"status"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2)" json:"total"`
	DueDate    *time.Time      `json:"due_date,omitempty"`

	// Payment settlement fields, populated when an approved gateway payment
	// marks the invoice paid.
	PaymentID     string          `gorm:"not null;default:''" json:"payment_id,omitempty"`
	PaymentMethod string          `gorm:"not null;default:''" json:"payment_method,omitempty"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(14,2)" json:"paid_amount"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// TableName sets the table name
func (Invoice) TableName() string {
	return "invoices"
}

// ApplyPayment transitions the invoice according to an approved or reversed
// payment and reports whether the invoice actually changed. Re-applying a
// payment the invoice already reflects is a no-op, which keeps re-delivered
// webhooks from producing repeated transitions.
func (inv *Invoice) ApplyPayment(event *PaymentEvent) bool {
	if !event.Status.IsSuccess() {
		return false
	}
	if inv.Status == InvoiceStatusPaid && inv.PaymentID == event.ExternalPaymentID {
		return false
	}

	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaymentID = event.ExternalPaymentID
	inv.PaymentMethod = event.PaymentMethod
	inv.PaidAmount = event.Amount
	inv.PaidAt = &now
	return true
}
