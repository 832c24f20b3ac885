package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GormCustomerRepository struct {
	*GormTenantRepository[partner.Customer, *partner.Customer]
}

func NewGormCustomerRepository(db *gorm.DB, logger *zap.Logger) *GormCustomerRepository {
	return &GormCustomerRepository{
		GormTenantRepository: NewGormTenantRepository[partner.Customer, *partner.Customer](db, logger, CommonSortFields),
	}
}

type GormProviderRepository struct {
	*GormTenantRepository[partner.Provider, *partner.Provider]
}

func NewGormProviderRepository(db *gorm.DB, logger *zap.Logger) *GormProviderRepository {
	return &GormProviderRepository{
		GormTenantRepository: NewGormTenantRepository[partner.Provider, *partner.Provider](db, logger, CommonSortFields),
	}
}

func (r *GormProviderRepository) FindByUserID(ctx context.Context, userID, tenantID uint) (*partner.Provider, error) {
	if tenantID == 0 {
		return nil, shared.ErrTenantRequired
	}
	var provider partner.Provider
	if err := r.DB().WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find_by_user_id", "partner.Provider", 0, tenantID, err)
	}
	return &provider, nil
}
