package accrual

import "errors"

// ErrOverdueScan means the overdue set could not be read; nothing was
// processed and the run can be retried as is.
var ErrOverdueScan = errors.New("overdue installment scan failed")

// Result counts what one run did. Scanned = Updated + Failed unless the
// run was cancelled part way.
type Result struct {
	AsOf                 string `json:"as_of"`
	Scanned              int    `json:"scanned"`
	Updated              int    `json:"updated"`
	Transitioned         int    `json:"transitioned"`
	Failed               int    `json:"failed"`
	NotificationsEmitted int    `json:"notifications_emitted"`
	NotificationsSkipped int    `json:"notifications_skipped"`
	NotificationsFailed  int    `json:"notifications_failed"`
	SevereEvents         int    `json:"severe_events"`
}
