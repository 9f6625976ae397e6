package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const journalColumns = `entry_id, transaction_ref, entry_date, account_id, debit, credit,
	description, source_type, source_id, transaction_type, contact_id, crop_id,
	quantity_kg, unit_price, created_at`

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.JournalEntry) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO general_ledger (
			transaction_ref, entry_date, account_id, debit, credit, description,
			source_type, source_id, transaction_type, contact_id, crop_id,
			quantity_kg, unit_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING entry_id, created_at`,
		e.TransactionRef, e.EntryDate, e.AccountID, e.Debit, e.Credit, e.Description,
		e.SourceType, e.SourceID, e.TransactionType, e.ContactID, e.CropID,
		e.QuantityKg, e.UnitPrice,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("Create: %s: %w", e.TransactionRef, &domain.NotFoundError{Entity: "account", ID: e.AccountID})
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByRef returns the ref's entries in posting order.
func (r *JournalRepository) GetByRef(ctx context.Context, tx *sql.Tx, ref string) ([]domain.JournalEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM general_ledger
		WHERE transaction_ref = $1 ORDER BY entry_id`, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByRef: %w", err)
	}
	entries, err := collectJournalEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByRef: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) ListByRef(ctx context.Context, ref string) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM general_ledger
		WHERE transaction_ref = $1 ORDER BY entry_id`, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByRef: %w", err)
	}
	entries, err := collectJournalEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByRef: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) DeleteByRef(ctx context.Context, tx *sql.Tx, ref string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM general_ledger WHERE transaction_ref = $1`, ref)
	if err != nil {
		return 0, fmt.Errorf("DeleteByRef: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteByRef: rows affected: %w", err)
	}
	return n, nil
}

func (r *JournalRepository) CountByAccount(ctx context.Context, tx *sql.Tx, accountID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM general_ledger WHERE account_id = $1`, accountID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByAccount: %w", err)
	}
	return n, nil
}

type RefImbalance struct {
	Ref    string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (r *JournalRepository) UnbalancedRefs(ctx context.Context) ([]RefImbalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_ref, SUM(debit), SUM(credit) FROM general_ledger
		GROUP BY transaction_ref HAVING SUM(debit) <> SUM(credit)
		ORDER BY transaction_ref`,
	)
	if err != nil {
		return nil, fmt.Errorf("UnbalancedRefs: %w", err)
	}
	defer rows.Close()

	var out []RefImbalance
	for rows.Next() {
		var ri RefImbalance
		if err := rows.Scan(&ri.Ref, &ri.Debit, &ri.Credit); err != nil {
			return nil, fmt.Errorf("UnbalancedRefs: scan: %w", err)
		}
		out = append(out, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("UnbalancedRefs: rows: %w", err)
	}
	return out, nil
}

type AccountPostings struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// PostingsByAccount sums both sides of every account's postings.
func (r *JournalRepository) PostingsByAccount(ctx context.Context) (map[int64]AccountPostings, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, SUM(debit), SUM(credit) FROM general_ledger GROUP BY account_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("PostingsByAccount: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]AccountPostings)
	for rows.Next() {
		var id int64
		var p AccountPostings
		if err := rows.Scan(&id, &p.Debit, &p.Credit); err != nil {
			return nil, fmt.Errorf("PostingsByAccount: scan: %w", err)
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PostingsByAccount: rows: %w", err)
	}
	return out, nil
}

func collectJournalEntries(rows *sql.Rows) ([]domain.JournalEntry, error) {
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanJournalEntry(s scanner) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	var quantity, unitPrice decimal.NullDecimal
	err := s.Scan(
		&e.ID, &e.TransactionRef, &e.EntryDate, &e.AccountID, &e.Debit, &e.Credit,
		&e.Description, &e.SourceType, &e.SourceID, &e.TransactionType, &e.ContactID, &e.CropID,
		&quantity, &unitPrice, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if quantity.Valid {
		e.QuantityKg = &quantity.Decimal
	}
	if unitPrice.Valid {
		e.UnitPrice = &unitPrice.Decimal
	}
	return &e, nil
}
