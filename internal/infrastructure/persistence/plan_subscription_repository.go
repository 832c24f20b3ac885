package persistence

import (
	"github.com/backoffice/backend/internal/domain/billing"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GormPlanSubscriptionRepository struct {
	*GormTenantRepository[billing.PlanSubscription, *billing.PlanSubscription]
}

func NewGormPlanSubscriptionRepository(db *gorm.DB, logger *zap.Logger) *GormPlanSubscriptionRepository {
	return &GormPlanSubscriptionRepository{
		GormTenantRepository: NewGormTenantRepository[billing.PlanSubscription, *billing.PlanSubscription](db, logger, CommonSortFields),
	}
}
