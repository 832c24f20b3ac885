package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantPtr constrains P to a pointer to T that carries the tenant
// capability set. Resolution is entirely static: an entity type without
// tenant accessors cannot instantiate a tenant-scoped repository.
type TenantPtr[T any] interface {
	*T
	shared.TenantScoped
}

// GormTenantRepository implements shared.TenantRepository for any
// tenant-scoped entity type using GORM.
//
// Every read filters by (id, tenant_id) in a single lookup; there is no
// fetch-then-check anywhere, so a row under a foreign tenant is
// indistinguishable from a missing row in both result and timing.
type GormTenantRepository[T any, P TenantPtr[T]] struct {
	db         *gorm.DB
	logger     *zap.Logger
	entityType string
	sortFields map[string]bool
}

// NewGormTenantRepository creates a tenant-scoped repository for T.
// sortFields is the order-by allow-list; nil falls back to the common base
// columns.
func NewGormTenantRepository[T any, P TenantPtr[T]](db *gorm.DB, logger *zap.Logger, sortFields map[string]bool) *GormTenantRepository[T, P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sortFields == nil {
		sortFields = CommonSortFields
	}
	return &GormTenantRepository[T, P]{
		db:         db,
		logger:     logger,
		entityType: fmt.Sprintf("%T", *new(T)),
		sortFields: sortFields,
	}
}

// DB exposes the underlying handle for typed repositories composed on top.
func (r *GormTenantRepository[T, P]) DB() *gorm.DB {
	return r.db
}

// FindByID finds an entity by id within a tenant. A row that exists under a
// different tenant returns shared.ErrNotFound exactly like a missing row.
func (r *GormTenantRepository[T, P]) FindByID(ctx context.Context, id, tenantID uint) (*T, error) {
	if tenantID == 0 {
		return nil, shared.ErrTenantRequired
	}
	var entity T
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find", r.entityType, id, tenantID, err)
	}
	return &entity, nil
}

// FindAll finds all entities of a tenant matching the criteria. Criteria are
// ANDed with the tenant filter; results are capped at shared.MaxQueryLimit.
func (r *GormTenantRepository[T, P]) FindAll(ctx context.Context, tenantID uint, criteria shared.Criteria, opts shared.QueryOptions) ([]T, error) {
	if tenantID == 0 {
		return nil, shared.ErrTenantRequired
	}

	query := r.db.WithContext(ctx).Model(new(T)).Where("tenant_id = ?", tenantID)
	if len(criteria) > 0 {
		query = query.Where(map[string]any(criteria))
	}

	orderField := ValidateSortField(opts.OrderBy, r.sortFields, "id")
	orderDir := ValidateSortOrder(opts.OrderDir)
	limit := opts.Limit
	if limit <= 0 || limit > shared.MaxQueryLimit {
		limit = shared.MaxQueryLimit
	}

	var entities []T
	if err := query.
		Order(orderField + " " + orderDir).
		Limit(limit).
		Offset(opts.Offset).
		Find(&entities).Error; err != nil {
		return nil, shared.NewStorageError("list", r.entityType, 0, tenantID, err)
	}
	return entities, nil
}

// Save creates or updates an entity under the given tenant.
//
// The whole sequence of ownership validation, tenant stamping and the
// insert or update runs inside one transaction; no partially stamped state is
// observable outside it. Insert vs update is decided by identity presence
// alone: a zero id inserts, a non-zero id updates only after the row is
// verified to exist under (id, tenant_id). A caller-supplied id with no
// matching row rolls back with shared.ErrNotFound rather than silently
// inserting under a foreign tenant.
func (r *GormTenantRepository[T, P]) Save(ctx context.Context, entity *T, tenantID uint) (*T, error) {
	if tenantID == 0 {
		r.logger.Error("save rejected: missing tenant id",
			zap.String("entity_type", r.entityType))
		return nil, shared.ErrTenantRequired
	}

	scoped := P(entity)
	insert := scoped.GetID() == 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch shared.ValidateOwnership(scoped, tenantID) {
		case shared.OwnershipCrossTenant:
			r.logger.Error("cross-tenant save rejected",
				zap.String("entity_type", r.entityType),
				zap.Uint("entity_id", scoped.GetID()),
				zap.Uint("entity_tenant_id", scoped.GetTenantID()),
				zap.Uint("requested_tenant_id", tenantID))
			return shared.ErrCrossTenantViolation
		case shared.OwnershipNoTenantConcept:
			return shared.ErrNoTenantConcept
		}

		scoped.SetTenantID(tenantID)

		if insert {
			if err := tx.Create(entity).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.ErrAlreadyExists
				}
				return shared.NewStorageError("insert", r.entityType, 0, tenantID, err)
			}
			return nil
		}

		var count int64
		if err := tx.Model(new(T)).
			Where("id = ? AND tenant_id = ?", scoped.GetID(), tenantID).
			Count(&count).Error; err != nil {
			return shared.NewStorageError("update_lookup", r.entityType, scoped.GetID(), tenantID, err)
		}
		if count == 0 {
			r.logger.Warn("update target not found for tenant",
				zap.String("entity_type", r.entityType),
				zap.Uint("entity_id", scoped.GetID()),
				zap.Uint("tenant_id", tenantID))
			return shared.ErrNotFound
		}

		if err := tx.Save(entity).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return shared.NewStorageError("update", r.entityType, scoped.GetID(), tenantID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if scoped.GetID() == 0 {
		r.logger.Error("identity not assigned after insert",
			zap.String("entity_type", r.entityType),
			zap.Uint("tenant_id", tenantID))
		return nil, shared.ErrIdentityNotAssigned
	}

	r.logger.Debug("entity saved",
		zap.String("entity_type", r.entityType),
		zap.Uint("entity_id", scoped.GetID()),
		zap.Uint("tenant_id", tenantID),
		zap.Bool("created", insert))
	return entity, nil
}

// DeleteByIDAndTenantID deletes the row matching (id, tenant_id). It returns
// false when no such row exists for the tenant; whether the id exists under
// another tenant is deliberately not revealed.
func (r *GormTenantRepository[T, P]) DeleteByIDAndTenantID(ctx context.Context, id, tenantID uint) (bool, error) {
	if tenantID == 0 {
		return false, shared.ErrTenantRequired
	}
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(new(T))
	if result.Error != nil {
		return false, shared.NewStorageError("delete", r.entityType, id, tenantID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountByTenantID counts the tenant's rows matching the criteria.
func (r *GormTenantRepository[T, P]) CountByTenantID(ctx context.Context, tenantID uint, criteria shared.Criteria) (int64, error) {
	if tenantID == 0 {
		return 0, shared.ErrTenantRequired
	}
	query := r.db.WithContext(ctx).Model(new(T)).Where("tenant_id = ?", tenantID)
	if len(criteria) > 0 {
		query = query.Where(map[string]any(criteria))
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.NewStorageError("count", r.entityType, 0, tenantID, err)
	}
	return count, nil
}

// ExistsByIDAndTenantID reports whether a row exists under (id, tenant_id).
func (r *GormTenantRepository[T, P]) ExistsByIDAndTenantID(ctx context.Context, id, tenantID uint) (bool, error) {
	if tenantID == 0 {
		return false, shared.ErrTenantRequired
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Count(&count).Error; err != nil {
		return false, shared.NewStorageError("exists", r.entityType, id, tenantID, err)
	}
	return count > 0, nil
}
