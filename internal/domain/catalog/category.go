// Package catalog holds shared lookup entities that are intentionally
// global: every tenant reads the same rows. These types deliberately do not
// implement shared.TenantScoped, so they cannot be handed to a tenant-scoped
// repository; that mistake fails at compile time, not at runtime.
package catalog

import (
	"github.com/backoffice/backend/internal/domain/shared"
)

// Category is a global service category lookup row.
type Category struct {
	shared.BaseEntity

	Name     string `gorm:"not null;uniqueIndex" json:"name"`
	Slug     string `gorm:"not null;uniqueIndex" json:"slug"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName sets the table name
func (Category) TableName() string {
	return "categories"
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	shared.GlobalRepository[Category]
}
