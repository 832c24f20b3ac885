package shared

// OwnershipResult is the outcome of checking an entity against a requested
// tenant id.
type OwnershipResult int

const (
	// OwnershipConsistent means the entity either already belongs to the
	// requested tenant or has no tenant stamped yet. In the unstamped case
	// the caller must stamp the entity with the requested tenant id before
	// persisting it.
	OwnershipConsistent OwnershipResult = iota

	// OwnershipCrossTenant means the entity is stamped with a different
	// tenant. This must surface as a fatal error; proceeding silently is a
	// security bug.
	OwnershipCrossTenant

	// OwnershipNoTenantConcept means the entity type carries no tenant
	// dimension. Only global repository paths may see this; a tenant-scoped
	// repository receiving it is misconfigured.
	OwnershipNoTenantConcept
)

// String returns a human-readable name for logging
func (r OwnershipResult) String() string {
	switch r {
	case OwnershipConsistent:
		return "consistent"
	case OwnershipCrossTenant:
		return "cross_tenant"
	case OwnershipNoTenantConcept:
		return "no_tenant_concept"
	default:
		return "unknown"
	}
}

// ValidateOwnership decides whether an entity may be persisted under the
// given tenant. It is a pure function with no side effects; stamping an
// unset tenant id is the caller's responsibility.
func ValidateOwnership(entity Entity, tenantID uint) OwnershipResult {
	scoped, ok := entity.(TenantScoped)
	if !ok {
		return OwnershipNoTenantConcept
	}
	current := scoped.GetTenantID()
	if current == 0 || current == tenantID {
		return OwnershipConsistent
	}
	return OwnershipCrossTenant
}
