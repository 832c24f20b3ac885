package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisReplayStore implements ReplayStore using Redis
// This is suitable for distributed deployments where multiple instances
// need to share replay state
type RedisReplayStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisReplayStore creates a new Redis-based replay store
func NewRedisReplayStore(cfg config.RedisConfig) (*RedisReplayStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisReplayStore{
		client:    client,
		keyPrefix: "webhook:replay:",
	}, nil
}

// NewRedisReplayStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisReplayStoreWithClient(client *redis.Client, keyPrefix string) *RedisReplayStore {
	if keyPrefix == "" {
		keyPrefix = "webhook:replay:"
	}
	return &RedisReplayStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkSeen records a request id with a TTL.
// Returns true if the id was newly recorded, false if already present.
// Uses SETNX (SET if Not eXists) for atomic operation
func (s *RedisReplayStore) MarkSeen(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + requestID

	// SETNX with TTL in a single atomic operation
	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark request as seen: %w", err)
	}

	return result, nil
}

// IsSeen checks whether a request id has already been recorded
func (s *RedisReplayStore) IsSeen(ctx context.Context, requestID string) (bool, error) {
	key := s.keyPrefix + requestID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check request replay state: %w", err)
	}

	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisReplayStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisReplayStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisReplayStore implements ReplayStore
var _ shared.ReplayStore = (*RedisReplayStore)(nil)
