package shared

import (
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrNotFound is the normal outcome of a lookup that matched no row for
	// the given tenant. It is not a failure and carries no information about
	// whether the row exists under a different tenant.
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")

	// ErrAlreadyExists is returned when a uniqueness constraint rejects an
	// insert, typically when two deliveries of the same event race.
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")

	// ErrTenantRequired indicates a tenant-scoped operation was invoked
	// without a valid tenant id. This is a programming bug in the caller,
	// never a business failure, and is not retried.
	ErrTenantRequired = NewDomainError("TENANT_REQUIRED", "A valid tenant id is required for this operation")

	// ErrCrossTenantViolation is a security-relevant condition: an entity
	// owned by one tenant was submitted under another tenant's authority.
	// It must always propagate and is never downgraded to a not-found.
	ErrCrossTenantViolation = NewDomainError("CROSS_TENANT_VIOLATION", "Entity belongs to a different tenant")

	// ErrNoTenantConcept indicates an entity with no tenant dimension reached
	// a tenant-scoped code path. This is a wiring error, caught at compile
	// time by repository type constraints; the value exists for the
	// validator's three-way contract.
	ErrNoTenantConcept = NewDomainError("NO_TENANT_CONCEPT", "Entity type has no tenant dimension")

	// ErrIdentityNotAssigned indicates storage committed an insert without
	// assigning an identity. This is a critical storage fault.
	ErrIdentityNotAssigned = NewDomainError("IDENTITY_NOT_ASSIGNED", "Storage did not assign an identity on insert")

	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// StorageError wraps a storage-layer failure with the entity context the
// operator needs. Callers match it with errors.As and may retry; the
// wrapped cause is preserved for logs.
type StorageError struct {
	Op         string
	EntityType string
	EntityID   uint
	TenantID   uint
	Err        error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s (id=%d, tenant=%d): %v",
		e.Op, e.EntityType, e.EntityID, e.TenantID, e.Err)
}

// Unwrap exposes the underlying driver error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError for the given operation and entity context
func NewStorageError(op, entityType string, entityID, tenantID uint, err error) *StorageError {
	return &StorageError{
		Op:         op,
		EntityType: entityType,
		EntityID:   entityID,
		TenantID:   tenantID,
		Err:        err,
	}
}
