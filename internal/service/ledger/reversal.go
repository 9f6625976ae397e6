package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// ReversalEngine removes every effect a transaction ref had on the ledger,
// the running balances and stock.
type ReversalEngine struct {
	journal   *Journal
	balances  *Balances
	valuation *Valuation
}

func NewReversalEngine(journal *Journal, balances *Balances, valuation *Valuation) *ReversalEngine {
	return &ReversalEngine{journal: journal, balances: balances, valuation: valuation}
}

type Reversal struct {
	Ref       string
	Entries   []domain.JournalEntry
	Movements int
}

func (r *ReversalEngine) Reverse(ctx context.Context, tx *sql.Tx, ref string) (*Reversal, error) {
	entries, err := r.journal.EntriesFor(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}

	// Stock rows are locked before accounts, the same order coordinators use.
	moved, err := r.valuation.Unwind(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}
	if len(entries) == 0 {
		if moved == 0 {
			return nil, fmt.Errorf("Reverse: %w", &domain.ConsistencyError{Ref: ref, Reason: "nothing to reverse"})
		}
		// A zero-value write-off moves stock without posting.
		return &Reversal{Ref: ref, Movements: moved}, nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.AccountID)
	}
	accounts, err := r.balances.Lock(ctx, tx, ids...)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		delta := r.balances.Delta(accounts[e.AccountID], e).Neg()
		if err := r.balances.Adjust(ctx, tx, e.AccountID, delta); err != nil {
			return nil, fmt.Errorf("Reverse: %w", err)
		}
	}

	deleted, err := r.journal.DeleteEntriesFor(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}
	if deleted != int64(len(entries)) {
		return nil, fmt.Errorf("Reverse: %w", &domain.ConsistencyError{
			Ref:    ref,
			Reason: fmt.Sprintf("read %d entries but deleted %d", len(entries), deleted),
		})
	}

	return &Reversal{Ref: ref, Entries: entries, Movements: moved}, nil
}
