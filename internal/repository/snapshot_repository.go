package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

// SnapshotRepository reads and replaces whole collections for backup and
// restore. Restore runs in one transaction: either every collection is
// swapped or none is.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Restore replaces the six backed-up collections with the snapshot contents.
func (r *SnapshotRepository) Restore(ctx context.Context, data models.BackupData) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	tables := []string{"commissions", "students", "bank_accounts", "delegates", "courses"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	// Users are upserted rather than wiped so restoring an old snapshot cannot
	// lock out the account performing the restore.
	const userQuery = `INSERT INTO users (id, username, password_hash, full_name, role, active, referred_by_id, last_login, created_at, updated_at)
        VALUES (:id, :username, :password_hash, :full_name, :role, :active, :referred_by_id, :last_login, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, full_name = EXCLUDED.full_name, role = EXCLUDED.role,
        active = EXCLUDED.active, referred_by_id = EXCLUDED.referred_by_id, updated_at = EXCLUDED.updated_at`
	for i := range data.Users {
		if _, err := tx.NamedExecContext(ctx, userQuery, data.Users[i]); err != nil {
			return fmt.Errorf("restore user %d: %w", data.Users[i].ID, err)
		}
	}

	const delegateQuery = `INSERT INTO delegates (id, user_id, name, phone, active, students, created_at, updated_at)
        VALUES (:id, :user_id, :name, :phone, :active, :students, :created_at, :updated_at)`
	for i := range data.Delegates {
		if _, err := tx.NamedExecContext(ctx, delegateQuery, data.Delegates[i]); err != nil {
			return fmt.Errorf("restore delegate %d: %w", data.Delegates[i].ID, err)
		}
	}

	const studentQuery = `INSERT INTO students (id, first_name, second_name, third_name, last_name, normalized_name, phone, course, schedule, delegate_id, registration_date, created_at, updated_at)
        VALUES (:id, :first_name, :second_name, :third_name, :last_name, :normalized_name, :phone, :course, :schedule, :delegate_id, :registration_date, :created_at, :updated_at)`
	for i := range data.Students {
		if _, err := tx.NamedExecContext(ctx, studentQuery, data.Students[i]); err != nil {
			return fmt.Errorf("restore student %d: %w", data.Students[i].ID, err)
		}
	}

	const commissionQuery = `INSERT INTO commissions (id, student_id, delegate_id, student_name, amount, status, student_status, created_date, confirmed_date, paid_date, created_at, updated_at)
        VALUES (:id, :student_id, :delegate_id, :student_name, :amount, :status, :student_status, :created_date, :confirmed_date, :paid_date, :created_at, :updated_at)`
	for i := range data.Commissions {
		if _, err := tx.NamedExecContext(ctx, commissionQuery, data.Commissions[i]); err != nil {
			return fmt.Errorf("restore commission %d: %w", data.Commissions[i].ID, err)
		}
	}

	const accountQuery = `INSERT INTO bank_accounts (id, delegate_id, bank_name, account_number, iban, created_at)
        VALUES (:id, :delegate_id, :bank_name, :account_number, :iban, :created_at)`
	for i := range data.BankAccounts {
		if _, err := tx.NamedExecContext(ctx, accountQuery, data.BankAccounts[i]); err != nil {
			return fmt.Errorf("restore bank account %d: %w", data.BankAccounts[i].ID, err)
		}
	}

	const courseQuery = `INSERT INTO courses (id, name, status, start_date, end_date, current_students, max_students, created_at, updated_at)
        VALUES (:id, :name, :status, :start_date, :end_date, :current_students, :max_students, :created_at, :updated_at)`
	for i := range data.Courses {
		if _, err := tx.NamedExecContext(ctx, courseQuery, data.Courses[i]); err != nil {
			return fmt.Errorf("restore course %d: %w", data.Courses[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}
