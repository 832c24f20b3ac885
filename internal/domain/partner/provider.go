package partner

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
)

// Provider is the tenant's own service-provider account, the actor behind
// budgets and invoices and the recipient of payment notifications.
type Provider struct {
	shared.TenantEntity

	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Email  string `gorm:"index" json:"email"`
}

// TableName sets the table name
func (Provider) TableName() string {
	return "providers"
}

// ProviderRepository persists providers.
type ProviderRepository interface {
	shared.TenantRepository[Provider]

	// FindByUserID resolves the provider account behind a user within a
	// tenant.
	FindByUserID(ctx context.Context, userID, tenantID uint) (*Provider, error)
}
