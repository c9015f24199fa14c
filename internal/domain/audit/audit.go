package audit

import (
	"context"
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SystemActor is the actor id used for events raised by background jobs.
const SystemActor = "system"

// Event is an append-only audit log entry.
type Event struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	EventID   string    `gorm:"column:event_id;type:char(32);not null;uniqueIndex:ux_audit_events_event_id" json:"event_id"`
	ActorID   string    `gorm:"column:actor_id;size:64;not null" json:"actor_id"`
	Action    string    `gorm:"column:action;size:64;not null;index:idx_audit_events_action" json:"action"`
	Severity  Severity  `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	Details   string    `gorm:"column:details;type:text" json:"details"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Event) TableName() string { return "audit_events" }

// Recorder is best-effort; callers log and move on when it fails.
type Recorder interface {
	Record(ctx context.Context, actorID, action string, severity Severity, details map[string]any) error
}
