package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormGlobalRepository implements shared.GlobalRepository for entity types
// that have no tenant dimension, such as shared reference data. Handing a
// tenant-scoped type to it compiles but would bypass isolation, so typed
// constructors below only instantiate it for global entities.
type GormGlobalRepository[T any] struct {
	db         *gorm.DB
	logger     *zap.Logger
	entityType string
	sortFields map[string]bool
}

func NewGormGlobalRepository[T any](db *gorm.DB, logger *zap.Logger, sortFields map[string]bool) *GormGlobalRepository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sortFields == nil {
		sortFields = CommonSortFields
	}
	return &GormGlobalRepository[T]{
		db:         db,
		logger:     logger,
		entityType: fmt.Sprintf("%T", *new(T)),
		sortFields: sortFields,
	}
}

func (r *GormGlobalRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStorageError("find", r.entityType, id, 0, err)
	}
	return &entity, nil
}

func (r *GormGlobalRepository[T]) FindBy(ctx context.Context, criteria shared.Criteria, opts shared.QueryOptions) ([]T, error) {
	query := r.db.WithContext(ctx).Model(new(T))
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
		return nil, shared.NewStorageError("list", r.entityType, 0, 0, err)
	}
	return entities, nil
}

func (r *GormGlobalRepository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, shared.NewStorageError("save", r.entityType, 0, 0, err)
	}
	return entity, nil
}

func (r *GormGlobalRepository[T]) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return false, shared.NewStorageError("delete", r.entityType, id, 0, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *GormGlobalRepository[T]) Count(ctx context.Context, criteria shared.Criteria) (int64, error) {
	query := r.db.WithContext(ctx).Model(new(T))
	if len(criteria) > 0 {
		query = query.Where(map[string]any(criteria))
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.NewStorageError("count", r.entityType, 0, 0, err)
	}
	return count, nil
}
