package persistence

import (
	"github.com/backoffice/backend/internal/domain/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewGormCategoryRepository returns the global repository for categories.
// Categories are shared reference data with no tenant column.
func NewGormCategoryRepository(db *gorm.DB, logger *zap.Logger) catalog.CategoryRepository {
	return NewGormGlobalRepository[catalog.Category](db, logger, CategorySortFields)
}
