package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/acchub/acchub/internal/models"
)

const accountColumns = `id, category_id, email, password, quality_level, success_rate, is_used, used_at,
validation_status, COALESCE(validation_notes, ''), COALESCE(validated_by, ''), created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	const query = `
INSERT INTO accounts (category_id, email, password, quality_level, success_rate, validation_status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`
	if account.ValidationStatus == "" {
		account.ValidationStatus = models.ValidationUnknown
	}
	if err := r.db.QueryRowContext(ctx, query,
		account.CategoryID, account.Email, account.Password,
		account.QualityLevel, account.SuccessRate, account.ValidationStatus,
	).Scan(&account.ID, &account.CreatedAt); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// BulkInsert inserts all accounts inside one transaction; either every row
// lands or none do.
func (r *AccountRepository) BulkInsert(ctx context.Context, accounts []models.Account) (int, error) {
	if len(accounts) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
INSERT INTO accounts (category_id, email, password, quality_level, success_rate, validation_status)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, account := range accounts {
		status := account.ValidationStatus
		if status == "" {
			status = models.ValidationUnknown
		}
		if _, err := tx.ExecContext(ctx, query,
			account.CategoryID, account.Email, account.Password,
			account.QualityLevel, account.SuccessRate, status,
		); err != nil {
			return 0, fmt.Errorf("bulk insert account: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}
	return len(accounts), nil
}

func (r *AccountRepository) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	const query = `
UPDATE accounts
SET email = $1, password = $2, quality_level = $3, success_rate = $4
WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query,
		account.Email, account.Password, account.QualityLevel, account.SuccessRate, account.ID,
	); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return r.GetByID(ctx, account.ID)
}

func (r *AccountRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	const query = `DELETE FROM accounts WHERE id = ANY($1)`
	res, err := r.db.ExecContext(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete accounts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete accounts rows affected: %w", err)
	}
	return affected, nil
}

// SetUsed flips the usage flag for the given accounts (admin bulk action).
// Claiming through the generator never goes through here.
func (r *AccountRepository) SetUsed(ctx context.Context, ids []int64, used bool) error {
	const query = `
UPDATE accounts
SET is_used = $1, used_at = CASE WHEN $1 THEN now() ELSE NULL END
WHERE id = ANY($2)`
	if _, err := r.db.ExecContext(ctx, query, used, ids); err != nil {
		return fmt.Errorf("set accounts used: %w", err)
	}
	return nil
}

// UpdateValidation records an advisory credential check result.
func (r *AccountRepository) UpdateValidation(ctx context.Context, id int64, status models.ValidationStatus, notes, validatedBy string) error {
	const query = `
UPDATE accounts
SET validation_status = $1, validation_notes = NULLIF($2, ''), validated_by = NULLIF($3, '')
WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, notes, validatedBy, id); err != nil {
		return fmt.Errorf("update account validation: %w", err)
	}
	return nil
}

// CountStock returns how many unused accounts of the tier remain in the
// category. No side effects.
func (r *AccountRepository) CountStock(ctx context.Context, categoryID int64, tier models.Plan) (int, error) {
	const query = `
SELECT COUNT(*) FROM accounts
WHERE category_id = $1 AND quality_level = $2 AND NOT is_used`
	var count int
	if err := r.db.QueryRowContext(ctx, query, categoryID, tier).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stock: %w", err)
	}
	return count, nil
}

// Counts returns total and used account counts across all categories.
func (r *AccountRepository) Counts(ctx context.Context) (total, used int64, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_used) FROM accounts`
	if err := r.db.QueryRowContext(ctx, query).Scan(&total, &used); err != nil {
		return 0, 0, fmt.Errorf("count accounts: %w", err)
	}
	return total, used, nil
}

// Claim atomically marks one unused account of the tier as used and returns
// it, recording a generation_history row in the same transaction. The pick is
// "an" unused row, not necessarily the oldest. Returns (nil, nil) when the
// shelf is empty. FOR UPDATE SKIP LOCKED guarantees concurrent claimers never
// receive the same account.
func (r *AccountRepository) Claim(ctx context.Context, categoryID int64, tier models.Plan, ip string) (*models.Account, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	claimQuery := `
UPDATE accounts
SET is_used = TRUE, used_at = now()
WHERE id = (
    SELECT id FROM accounts
    WHERE category_id = $1 AND quality_level = $2 AND NOT is_used
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + accountColumns
	row := tx.QueryRowContext(ctx, claimQuery, categoryID, tier)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim account: %w", err)
	}

	const historyQuery = `
INSERT INTO generation_history (category_name, email, ip_address)
SELECT c.name, $1, NULLIF($2, '')
FROM categories c WHERE c.id = $3`
	if _, err := tx.ExecContext(ctx, historyQuery, account.Email, ip, categoryID); err != nil {
		return nil, fmt.Errorf("record generation history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(
		&a.ID, &a.CategoryID, &a.Email, &a.Password, &a.QualityLevel, &a.SuccessRate,
		&a.IsUsed, &a.UsedAt, &a.ValidationStatus, &a.ValidationNotes, &a.ValidatedBy, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccounts(rows *sql.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}
