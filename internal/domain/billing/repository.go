package billing

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
)

// GatewayPaymentRepository persists local gateway payment records.
type GatewayPaymentRepository interface {
	shared.TenantRepository[GatewayPayment]

	// FindByPaymentID looks a record up by its natural key. The caller has
	// no local id during webhook processing, so this is the only lookup the
	// reconciliation path uses.
	FindByPaymentID(ctx context.Context, paymentID string, tenantID uint) (*GatewayPayment, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	shared.TenantRepository[Invoice]

	FindByCode(ctx context.Context, code string, tenantID uint) (*Invoice, error)
}

// PlanSubscriptionRepository persists plan subscriptions.
type PlanSubscriptionRepository interface {
	shared.TenantRepository[PlanSubscription]
}
