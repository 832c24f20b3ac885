package cache

import (
	"context"
	"sync"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
)

// entry represents a stored request ID with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryReplayStore implements ReplayStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryReplayStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReplayStore creates a new in-memory replay store
// It starts a background goroutine to clean up expired entries
func NewInMemoryReplayStore() *InMemoryReplayStore {
	store := &InMemoryReplayStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine
	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkSeen records a request id with a TTL.
// Returns true if the id was newly recorded, false if already present.
func (s *InMemoryReplayStore) MarkSeen(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if already exists and not expired
	if e, exists := s.entries[requestID]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Already seen
		}
		// Entry exists but expired, will be overwritten
	}

	s.entries[requestID] = entry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// IsSeen checks whether a request id has already been recorded
func (s *InMemoryReplayStore) IsSeen(ctx context.Context, requestID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[requestID]
	if !exists {
		return false, nil
	}

	// Check if entry has expired
	if time.Now().After(e.expiresAt) {
		return false, nil // Expired, treat as unseen
	}

	return true, nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryReplayStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryReplayStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryReplayStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for requestID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, requestID)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryReplayStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryReplayStore implements ReplayStore
var _ shared.ReplayStore = (*InMemoryReplayStore)(nil)
