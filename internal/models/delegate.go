package models

import "time"

// Delegate is a sales agent who registers students and earns commissions.
// Students is a cached count of non-deleted students referencing the delegate;
// it only moves through the repository's atomic increment/decrement operations.
type Delegate struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	Students  int       `db:"students" json:"students"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DelegateFilter captures filtering criteria for listing delegates.
type DelegateFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BankAccount stores payout coordinates for a delegate.
type BankAccount struct {
	ID            int64     `db:"id" json:"id"`
	DelegateID    int64     `db:"delegate_id" json:"delegate_id"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	IBAN          string    `db:"iban" json:"iban"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
