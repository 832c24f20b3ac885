// Package partner holds the tenant-scoped parties of the back office:
// the customers a provider bills and the provider accounts themselves.
package partner

import (
	"github.com/backoffice/backend/internal/domain/shared"
)

// Customer is a tenant-scoped billing counterparty.
type Customer struct {
	shared.TenantEntity

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"index" json:"email"`
	Phone string `json:"phone"`
}

// TableName sets the table name
func (Customer) TableName() string {
	return "customers"
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	shared.TenantRepository[Customer]
}
