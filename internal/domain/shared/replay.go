package shared

import (
	"context"
	"time"
)

// ReplayStore remembers request ids already seen by the webhook endpoints so
// a re-delivered notification can be recognized cheaply. It is a best-effort
// first line of defense; the storage-layer uniqueness constraint on payment
// records is the authoritative race-breaker.
type ReplayStore interface {
	// MarkSeen records a request id with a TTL.
	// Returns true if the id was newly recorded, false if already present.
	MarkSeen(ctx context.Context, requestID string, ttl time.Duration) (bool, error)

	// IsSeen reports whether a request id has been recorded and not expired.
	IsSeen(ctx context.Context, requestID string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// ReplayConfig holds configuration for webhook replay tracking
type ReplayConfig struct {
	// TTL is how long a request id is remembered. After expiry the same id
	// is treated as new; reconciliation remains idempotent regardless.
	TTL time.Duration

	// Enabled toggles replay tracking.
	Enabled bool
}

// DefaultReplayConfig returns the default replay tracking configuration
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
