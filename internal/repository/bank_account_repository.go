package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

// BankAccountRepository manages delegate payout coordinates.
type BankAccountRepository struct {
	db *sqlx.DB
}

// NewBankAccountRepository constructs a BankAccountRepository.
func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

// ListByDelegate returns the accounts registered for a delegate.
func (r *BankAccountRepository) ListByDelegate(ctx context.Context, delegateID int64) ([]models.BankAccount, error) {
	const query = `SELECT id, delegate_id, bank_name, account_number, iban, created_at FROM bank_accounts WHERE delegate_id = $1 ORDER BY id`
	var accounts []models.BankAccount
	if err := r.db.SelectContext(ctx, &accounts, query, delegateID); err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return accounts, nil
}

// Create inserts a bank account.
func (r *BankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	account.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO bank_accounts (id, delegate_id, bank_name, account_number, iban, created_at)
        VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM bank_accounts), $1, $2, $3, $4, $5)
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		account.DelegateID, account.BankName, account.AccountNumber, account.IBAN, account.CreatedAt,
	).Scan(&account.ID); err != nil {
		return fmt.Errorf("create bank account: %w", err)
	}
	return nil
}

// Delete removes a bank account.
func (r *BankAccountRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete bank account: %w", err)
	}
	return nil
}

// All returns every bank account, used by backup snapshots.
func (r *BankAccountRepository) All(ctx context.Context) ([]models.BankAccount, error) {
	const query = `SELECT id, delegate_id, bank_name, account_number, iban, created_at FROM bank_accounts ORDER BY id`
	var accounts []models.BankAccount
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("load all bank accounts: %w", err)
	}
	return accounts, nil
}
