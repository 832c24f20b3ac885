package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/billing"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GormInvoiceRepository struct {
	*GormTenantRepository[billing.Invoice, *billing.Invoice]
}

func NewGormInvoiceRepository(db *gorm.DB, logger *zap.Logger) *GormInvoiceRepository {
	return &GormInvoiceRepository{
		GormTenantRepository: NewGormTenantRepository[billing.Invoice, *billing.Invoice](db, logger, InvoiceSortFields),
	}
}

func (r *GormInvoiceRepository) FindByCode(ctx context.Context, code string, tenantID uint) (*billing.Invoice, error) {
	if tenantID == 0 {
		return nil, shared.ErrTenantRequired
	}
	var invoice billing.Invoice
	if err := r.DB().WithContext(ctx).
		Where("code = ? AND tenant_id = ?", code, tenantID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find_by_code", "billing.Invoice", 0, tenantID, err)
	}
	return &invoice, nil
}
