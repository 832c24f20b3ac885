// Package activity defines the audit-trail contract. Recording is
// fire-and-forget: the core never blocks on, or fails because of, the audit
// sink.
package activity

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
)

// Entry describes a single audited action.
type Entry struct {
	TenantID    uint
	ActorID     uint
	ActionType  string
	SubjectType string
	SubjectID   uint
	Description string
	Metadata    map[string]any
}

// Recorder receives audit entries. Implementations must not propagate
// failures to the caller; a lost audit row is logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Log is the persisted form of an audit entry.
type Log struct {
	shared.TenantEntity

	ActorID     uint   `gorm:"index" json:"actor_id"`
	ActionType  string `gorm:"not null;index" json:"action_type"`
	SubjectType string `gorm:"not null" json:"subject_type"`
	SubjectID   uint   `gorm:"index" json:"subject_id"`
	Description string `gorm:"not null" json:"description"`
	Metadata    string `gorm:"type:text" json:"metadata"`
}

// TableName sets the table name
func (Log) TableName() string {
	return "activity_logs"
}
