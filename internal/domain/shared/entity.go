package shared

import (
	"time"
)

// Entity is the base interface for all persistable domain entities.
// Identity is assigned by storage on first save; a zero ID means the
// entity has never been persisted.
type Entity interface {
	GetID() uint
}

// TenantScoped is the capability interface for entities that belong to a
// tenant. It is the closed set of tenant accessors every tenant-scoped
// entity type implements at compile time; there is no runtime probing for
// tenant columns anywhere in the codebase.
type TenantScoped interface {
	Entity
	GetTenantID() uint
	SetTenantID(tenantID uint)
}

// BaseEntity provides common fields for global (non-tenant) entities.
type BaseEntity struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// GetID returns the entity identity, zero until first persist.
func (e *BaseEntity) GetID() uint {
	return e.ID
}

// GetCreatedAt returns the creation timestamp.
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp.
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// TenantEntity provides common fields for tenant-scoped entities.
// TenantID is immutable once set: SetTenantID only stamps an unset value,
// so a persisted entity can never silently migrate between tenants.
type TenantEntity struct {
	BaseEntity
	TenantID uint `gorm:"not null;index" json:"tenant_id"`
}

// GetTenantID returns the owning tenant, zero before the first save.
func (e *TenantEntity) GetTenantID() uint {
	return e.TenantID
}

// SetTenantID stamps the owning tenant if it is not already set.
// Cross-tenant reassignment is rejected by the ownership validator before
// this is ever called with a conflicting id.
func (e *TenantEntity) SetTenantID(tenantID uint) {
	if e.TenantID == 0 {
		e.TenantID = tenantID
	}
}
