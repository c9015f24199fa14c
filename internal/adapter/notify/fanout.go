package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"ngnasoro-engine/internal/domain/notification"
)

// Fanout delivers to a primary channel then to extra channels. Only a
// primary failure is returned; extra channels are logged and skipped. A
// repeat rejected by the primary (ErrDuplicate) is not sent anywhere else.
type Fanout struct {
	primary notification.Notifier
	extra   []notification.Notifier
	log     *logrus.Logger
}

func NewFanout(primary notification.Notifier, log *logrus.Logger, extra ...notification.Notifier) *Fanout {
	return &Fanout{primary: primary, extra: extra, log: log}
}

func (f *Fanout) Notify(ctx context.Context, n *notification.Notification) error {
	if err := f.primary.Notify(ctx, n); err != nil {
		return err
	}
	for _, ch := range f.extra {
		if err := ch.Notify(ctx, n); err != nil {
			f.log.WithError(err).WithField("key", n.DedupeKey).Warn("secondary channel failed")
		}
	}
	return nil
}
