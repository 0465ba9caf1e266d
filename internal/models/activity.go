package models

import "time"

// ActivityAction constants represent actions recorded in the activity log.
const (
	ActivityActionAdd    = "add"
	ActivityActionUpdate = "update"
	ActivityActionDelete = "delete"
	ActivityActionStatus = "status"
	ActivityActionLogin  = "login"
	ActivityActionLogout = "logout"
)

// ActivityLog is an append-only audit record. Normal flow never mutates or
// deletes entries.
type ActivityLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Target    string    `db:"target" json:"target"`
	TargetID  *int64    `db:"target_id" json:"target_id,omitempty"`
	Details   string    `db:"details" json:"details"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter captures filtering criteria for listing activity entries.
type ActivityFilter struct {
	UserID   int64
	Target   string
	Page     int
	PageSize int
}
