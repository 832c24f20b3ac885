// Package activity implements the audit-trail sink on top of the database.
package activity

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/backoffice/backend/internal/domain/activity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormRecorder writes audit entries to the activity_logs table from a
// background goroutine. Record never blocks the caller beyond a buffered
// channel send and never returns an error; failed writes are logged and
// dropped.
type GormRecorder struct {
	db           *gorm.DB
	logger       *zap.Logger
	entries      chan queuedEntry
	flushTimeout time.Duration
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

type queuedEntry struct {
	entry activity.Entry
}

// NewGormRecorder starts a recorder with the given queue capacity.
func NewGormRecorder(db *gorm.DB, logger *zap.Logger, bufferSize int, flushTimeout time.Duration) *GormRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}

	r := &GormRecorder{
		db:           db,
		logger:       logger,
		entries:      make(chan queuedEntry, bufferSize),
		flushTimeout: flushTimeout,
	}

	r.wg.Add(1)
	go r.writeLoop()

	return r
}

// Record queues an audit entry. When the queue is full the entry is dropped
// with a warning; audit writes must never apply backpressure to payment
// processing.
func (r *GormRecorder) Record(ctx context.Context, entry activity.Entry) {
	select {
	case r.entries <- queuedEntry{entry: entry}:
	default:
		r.logger.Warn("activity queue full, dropping entry",
			zap.String("action_type", entry.ActionType),
			zap.Uint("tenant_id", entry.TenantID))
	}
}

// Close drains the queue and stops the background writer.
func (r *GormRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.entries)
		r.wg.Wait()
	})
}

func (r *GormRecorder) writeLoop() {
	defer r.wg.Done()

	for q := range r.entries {
		r.write(q.entry)
	}
}

func (r *GormRecorder) write(entry activity.Entry) {
	metadata := ""
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			r.logger.Warn("failed to encode activity metadata",
				zap.String("action_type", entry.ActionType),
				zap.Error(err))
		} else {
			metadata = string(raw)
		}
	}

	row := activity.Log{
		ActorID:     entry.ActorID,
		ActionType:  entry.ActionType,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Description: entry.Description,
		Metadata:    metadata,
	}
	row.SetTenantID(entry.TenantID)

	ctx, cancel := context.WithTimeout(context.Background(), r.flushTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error("failed to write activity log",
			zap.String("action_type", entry.ActionType),
			zap.Uint("tenant_id", entry.TenantID),
			zap.Error(err))
	}
}

var _ activity.Recorder = (*GormRecorder)(nil)

// NopRecorder discards every entry. Used in tests and when auditing is
// disabled.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, entry activity.Entry) {}

var _ activity.Recorder = NopRecorder{}
