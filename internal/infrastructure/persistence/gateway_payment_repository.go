package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormGatewayPaymentRepository persists gateway payment records. The table
// carries a unique index over (payment_id, tenant_id), so a concurrent
// duplicate insert surfaces as shared.ErrAlreadyExists from Save.
type GormGatewayPaymentRepository struct {
	*GormTenantRepository[billing.GatewayPayment, *billing.GatewayPayment]
}

func NewGormGatewayPaymentRepository(db *gorm.DB, logger *zap.Logger) *GormGatewayPaymentRepository {
	return &GormGatewayPaymentRepository{
		GormTenantRepository: NewGormTenantRepository[billing.GatewayPayment, *billing.GatewayPayment](db, logger, GatewayPaymentSortFields),
	}
}

// FindByPaymentID looks up a payment record by its natural key, the gateway
// payment id within a tenant.
func (r *GormGatewayPaymentRepository) FindByPaymentID(ctx context.Context, paymentID string, tenantID uint) (*billing.GatewayPayment, error) {
	if tenantID == 0 {
		return nil, shared.ErrTenantRequired
	}
	var payment billing.GatewayPayment
	if err := r.DB().WithContext(ctx).
		Where("payment_id = ? AND tenant_id = ?", paymentID, tenantID).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find_by_payment_id", "billing.GatewayPayment", 0, tenantID, err)
	}
	return &payment, nil
}
