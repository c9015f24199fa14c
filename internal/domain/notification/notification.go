package notification

import (
	"context"
	"errors"
	"time"
)

// ErrDelivery wraps any failure to hand a notification to a channel.
var ErrDelivery = errors.New("notification delivery failed")

// ErrDuplicate is returned by a channel that already holds the dedupe key.
var ErrDuplicate = errors.New("notification already delivered")

// Notification is an in-app message addressed to one user. DedupeKey is
// unique per logical event; channels drop a repeated key.
type Notification struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID     string    `gorm:"column:user_id;size:32;not null;index:idx_notifications_user" json:"user_id"`
	Email      string    `gorm:"-" json:"-"`
	Title      string    `gorm:"column:title;size:255;not null" json:"title"`
	Message    string    `gorm:"column:message;type:text;not null" json:"message"`
	ActionLink string    `gorm:"column:action_link;size:512" json:"action_link,omitempty"`
	DedupeKey  string    `gorm:"column:dedupe_key;size:128;not null;uniqueIndex:ux_notifications_dedupe" json:"-"`
	Read       bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Notifier is fire-and-forget: a nil error means the channel accepted the
// message, not that the user saw it. ErrDuplicate means it was dropped as a
// repeat.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// Deduper claims a key once; later claims of the same key return false.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	// Release gives a key back after the send it guarded failed.
	Release(ctx context.Context, key string) error
}
