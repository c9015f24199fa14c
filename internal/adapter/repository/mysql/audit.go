package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"ngnasoro-engine/internal/domain/audit"
	"ngnasoro-engine/pkg/id"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Record(ctx context.Context, actorID, action string, severity audit.Severity, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	ev := &audit.Event{
		EventID:  id.NewID32(),
		ActorID:  actorID,
		Action:   action,
		Severity: severity,
		Details:  string(raw),
	}
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *AuditRepository) ListByAction(ctx context.Context, action string) ([]*audit.Event, error) {
	var out []*audit.Event
	err := r.db.WithContext(ctx).Where("action = ?", action).Order("id ASC").Find(&out).Error
	return out, err
}
