package mysql

import (
	"context"
	"fmt"

	"ngnasoro-engine/internal/domain/notification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository is the in-app notification channel.
type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Notify stores n. A row with the same dedupe key is kept as is and
// ErrDuplicate is returned.
func (r *NotificationRepository) Notify(ctx context.Context, n *notification.Notification) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedupe_key"}}, DoNothing: true}).
		Create(n)
	if res.Error != nil {
		return fmt.Errorf("%w: in-app: %v", notification.ErrDelivery, res.Error)
	}
	if res.RowsAffected == 0 {
		return notification.ErrDuplicate
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string) ([]*notification.Notification, error) {
	var out []*notification.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}
