package shared

import (
	"context"
)

// MaxQueryLimit is the hard upper bound on rows returned by list queries.
// Filter and report paths in the back office have always capped results at
// 100 rows; there is deliberately no cursor-based pagination contract.
const MaxQueryLimit = 100

// Criteria is a set of column/value equality conditions. All entries are
// ANDed together; tenant-scoped repositories additionally AND the tenant id.
type Criteria map[string]any

// QueryOptions holds optional ordering and windowing for list queries.
type QueryOptions struct {
	OrderBy  string // column name, validated against an allow-list
	OrderDir string // "asc" or "desc", defaults to "asc"
	Limit    int    // capped at MaxQueryLimit; 0 means MaxQueryLimit
	Offset   int
}

// TenantRepository is the contract every tenant-scoped repository exposes.
// Every operation is filtered or validated against the supplied tenant id;
// an id that matches a row under a different tenant behaves exactly like a
// missing row.
type TenantRepository[T any] interface {
	FindByID(ctx context.Context, id, tenantID uint) (*T, error)
	FindAll(ctx context.Context, tenantID uint, criteria Criteria, opts QueryOptions) ([]T, error)
	Save(ctx context.Context, entity *T, tenantID uint) (*T, error)
	DeleteByIDAndTenantID(ctx context.Context, id, tenantID uint) (bool, error)
	CountByTenantID(ctx context.Context, tenantID uint, criteria Criteria) (int64, error)
	ExistsByIDAndTenantID(ctx context.Context, id, tenantID uint) (bool, error)
}

// GlobalRepository is the same contract minus the tenant dimension, for
// entities intentionally shared across tenants (lookup tables). Entity types
// with a tenant column cannot satisfy the global repository's type
// constraints, so misuse is a compile-time error.
type GlobalRepository[T any] interface {
	FindByID(ctx context.Context, id uint) (*T, error)
	FindBy(ctx context.Context, criteria Criteria, opts QueryOptions) ([]T, error)
	Save(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context, criteria Criteria) (int64, error)
}
