package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const accountColumns = `account_id, account_name, account_type, account_number, bank_name,
	opening_balance, opening_balance_date, current_balance, is_active, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM financial_accounts WHERE account_id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "account", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context, includeInactive bool) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM financial_accounts
		WHERE is_active OR $1 ORDER BY account_id`, includeInactive,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, nil
}

// Create inserts the account, drawing an id from the sequence when none is
// set. The running balance starts at the opening balance.
func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO financial_accounts (
			account_id, account_name, account_type, account_number, bank_name,
			opening_balance, opening_balance_date, current_balance, is_active
		) VALUES (
			COALESCE(NULLIF($1, 0), nextval('financial_accounts_id_seq')),
			$2, $3, $4, $5, $6, $7, $6, TRUE
		) RETURNING account_id, current_balance, is_active, created_at`,
		a.ID, a.Name, a.Type, a.AccountNumber, a.BankName, a.OpeningBalance, a.OpeningBalanceDate,
	).Scan(&a.ID, &a.CurrentBalance, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return fmt.Errorf("Create: %w", domain.NewValidationError(nil, "account %d already exists", a.ID))
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// CreateIfMissing inserts the account unless its id is taken and reports
// whether a row was written.
func (r *AccountRepository) CreateIfMissing(ctx context.Context, tx *sql.Tx, a *domain.Account) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO financial_accounts (
			account_id, account_name, account_type, opening_balance,
			opening_balance_date, current_balance, is_active
		) VALUES ($1, $2, $3, $4, $5, $4, TRUE)
		ON CONFLICT (account_id) DO NOTHING`,
		a.ID, a.Name, a.Type, a.OpeningBalance, a.OpeningBalanceDate,
	)
	if err != nil {
		return false, fmt.Errorf("CreateIfMissing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("CreateIfMissing: rows affected: %w", err)
	}
	return n == 1, nil
}

// GetInTx reads an account inside tx without locking the row.
func (r *AccountRepository) GetInTx(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM financial_accounts WHERE account_id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetInTx: %w", &domain.NotFoundError{Entity: "account", ID: id})
		}
		return nil, fmt.Errorf("GetInTx: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM financial_accounts WHERE account_id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "account", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// AdjustBalance adds delta to the running balance.
func (r *AccountRepository) AdjustBalance(ctx context.Context, tx *sql.Tx, id int64, delta decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE financial_accounts SET current_balance = current_balance + $1 WHERE account_id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("AdjustBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("AdjustBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("AdjustBalance: %w", &domain.NotFoundError{Entity: "account", ID: id})
	}
	return nil
}

func (r *AccountRepository) Deactivate(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE financial_accounts SET is_active = FALSE WHERE account_id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.Name, &a.Type, &a.AccountNumber, &a.BankName,
		&a.OpeningBalance, &a.OpeningBalanceDate, &a.CurrentBalance, &a.IsActive, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
