package models

import "time"

// CommissionStatus tracks how far a commission payout has progressed.
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionConfirmed CommissionStatus = "confirmed"
	CommissionPaid      CommissionStatus = "paid"
	CommissionCancelled CommissionStatus = "cancelled"
)

// StudentStatus tracks the enrolled student's progress on the commission record.
type StudentStatus string

const (
	StudentRegistered StudentStatus = "registered"
	StudentFeesPaid   StudentStatus = "fees_paid"
	StudentStudying   StudentStatus = "studying"
	StudentOnHold     StudentStatus = "on_hold"
	StudentDropped    StudentStatus = "dropped"
	StudentCompleted  StudentStatus = "completed"
)

// Commission is the payout record paired with one student enrollment.
// ConfirmedDate is stamped once and never cleared; PaidDate is re-stamped on
// every transition into paid.
type Commission struct {
	ID            int64            `db:"id" json:"id"`
	StudentID     int64            `db:"student_id" json:"student_id"`
	DelegateID    int64            `db:"delegate_id" json:"delegate_id"`
	StudentName   string           `db:"student_name" json:"student_name"`
	Amount        float64          `db:"amount" json:"amount"`
	Status        CommissionStatus `db:"status" json:"status"`
	StudentStatus StudentStatus    `db:"student_status" json:"student_status"`
	CreatedDate   string           `db:"created_date" json:"created_date"`
	ConfirmedDate *string          `db:"confirmed_date" json:"confirmed_date,omitempty"`
	PaidDate      *string          `db:"paid_date" json:"paid_date,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// CommissionFilter captures filtering criteria for listing commissions.
type CommissionFilter struct {
	Status     *CommissionStatus
	DelegateID int64
	StudentID  int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CommissionTotals aggregates commission amounts by payout status.
type CommissionTotals struct {
	PendingCount   int     `db:"pending_count" json:"pending_count"`
	ConfirmedCount int     `db:"confirmed_count" json:"confirmed_count"`
	PaidCount      int     `db:"paid_count" json:"paid_count"`
	CancelledCount int     `db:"cancelled_count" json:"cancelled_count"`
	PendingAmount  float64 `db:"pending_amount" json:"pending_amount"`
	PaidAmount     float64 `db:"paid_amount" json:"paid_amount"`
}
