package models

import "time"

// NotificationSeverity classifies how a notification is rendered.
type NotificationSeverity string

const (
	SeveritySuccess NotificationSeverity = "success"
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityDanger  NotificationSeverity = "danger"
)

// Notification targets a single user, or every user when UserID is nil
// (broadcast). Viewer scoping happens at read time, not storage time.
type Notification struct {
	ID        int64                `db:"id" json:"id"`
	UserID    *int64               `db:"user_id" json:"user_id,omitempty"`
	Title     string               `db:"title" json:"title"`
	Message   string               `db:"message" json:"message"`
	Severity  NotificationSeverity `db:"severity" json:"severity"`
	IsRead    bool                 `db:"is_read" json:"is_read"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
}
