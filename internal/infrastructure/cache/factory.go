package cache

import (
	"fmt"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReplayStoreFactory creates replay stores based on configuration
type ReplayStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReplayStoreFactoryOption is a functional option for configuring the factory
type ReplayStoreFactoryOption func(*ReplayStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReplayStoreFactory creates a new factory
func NewReplayStoreFactory(cfg config.RedisConfig, opts ...ReplayStoreFactoryOption) *ReplayStoreFactory {
	f := &ReplayStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based replay store
func (f *ReplayStoreFactory) CreateRedisStore() (shared.ReplayStore, error) {
	store, err := NewRedisReplayStore(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis replay store: %w", err)
	}

	return store, nil
}

// CreateInMemoryStore creates an in-memory replay store
// This is suitable for single-instance deployments and testing
// WARNING: In-memory stores do not share state across process instances;
// a re-delivered webhook may reach a different instance and be treated as
// new. Reconciliation stays idempotent either way.
func (f *ReplayStoreFactory) CreateInMemoryStore() shared.ReplayStore {
	return NewInMemoryReplayStore()
}

// CreateStore creates a replay store based on whether Redis is available
// It tries to create a Redis store first, and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true
func (f *ReplayStoreFactory) CreateStore() (shared.ReplayStore, error) {
	// Try Redis first
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis replay store")
		return store, nil
	}

	// Check if fallback is allowed
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for replay tracking but unavailable: %w", err)
	}

	// Fall back to in-memory with warning
	f.logger.Warn("Redis unavailable, falling back to in-memory replay store. "+
		"Re-delivered webhooks may not be recognized across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
