package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// Engine bundles the ledger components a coordinator drives inside one
// transaction.
type Engine struct {
	journal   *Journal
	balances  *Balances
	valuation *Valuation
	audit     *AuditLog
	reversal  *ReversalEngine
	chart     domain.Chart
}

func NewEngine(entries journalStore, accounts accountStore, inventory inventoryStore, audit auditStore, chart domain.Chart) *Engine {
	journal := NewJournal(entries)
	balances := NewBalances(accounts, chart)
	valuation := NewValuation(inventory)
	return &Engine{
		journal:   journal,
		balances:  balances,
		valuation: valuation,
		audit:     NewAuditLog(audit),
		reversal:  NewReversalEngine(journal, balances, valuation),
		chart:     chart,
	}
}

func (e *Engine) Chart() domain.Chart {
	return e.chart
}

// Post writes entries as one balanced group under ref and applies their
// balance effects. Entries are stamped with ref and get their ids set.
func (e *Engine) Post(ctx context.Context, tx *sql.Tx, ref string, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("Post: %w", domain.NewValidationError(nil, "%s has no journal entries", ref))
	}

	ids := make([]int64, 0, len(entries))
	for i := range entries {
		entries[i].TransactionRef = ref
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("Post: %w", err)
		}
		ids = append(ids, entries[i].AccountID)
	}

	debit, credit := domain.Totals(entries)
	if !debit.Equal(credit) {
		return fmt.Errorf("Post: %w", domain.NewValidationError(domain.ErrUnbalancedEntry,
			"%s debits %s credits %s", ref, debit, credit))
	}

	accounts, err := e.balances.Lock(ctx, tx, ids...)
	if err != nil {
		return fmt.Errorf("Post: %w", err)
	}
	for id, acct := range accounts {
		if acct.Type == domain.AccountTypeHeader {
			return fmt.Errorf("Post: %w", domain.NewValidationError(domain.ErrInvalidAccount, "account %d is a header account", id))
		}
		if !acct.IsActive {
			return fmt.Errorf("Post: %w", domain.NewValidationError(domain.ErrInactive, "account %d is inactive", id))
		}
	}

	for i := range entries {
		if err := e.journal.Post(ctx, tx, &entries[i]); err != nil {
			return fmt.Errorf("Post: %w", err)
		}
		delta := e.balances.Delta(accounts[entries[i].AccountID], &entries[i])
		if err := e.balances.Adjust(ctx, tx, entries[i].AccountID, delta); err != nil {
			return fmt.Errorf("Post: %w", err)
		}
	}
	return nil
}

func (e *Engine) EntriesFor(ctx context.Context, tx *sql.Tx, ref string) ([]domain.JournalEntry, error) {
	return e.journal.EntriesFor(ctx, tx, ref)
}

func (e *Engine) LockStock(ctx context.Context, tx *sql.Tx, cropID int64) (*domain.InventoryRecord, error) {
	return e.valuation.Lock(ctx, tx, cropID)
}

func (e *Engine) ApplyMovement(ctx context.Context, tx *sql.Tx, m Movement) (*domain.InventoryMovement, error) {
	return e.valuation.Apply(ctx, tx, m)
}

func (e *Engine) Reverse(ctx context.Context, tx *sql.Tx, ref string) (*Reversal, error) {
	return e.reversal.Reverse(ctx, tx, ref)
}

func (e *Engine) Audit(ctx context.Context, tx *sql.Tx, table string, recordID int64, op domain.AuditOperation, oldValue, newValue any) error {
	return e.audit.Record(ctx, tx, table, recordID, op, oldValue, newValue)
}
