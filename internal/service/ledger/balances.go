package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// Balances keeps each account's running balance in step with its postings.
type Balances struct {
	accounts accountStore
	chart    domain.Chart
}

func NewBalances(accounts accountStore, chart domain.Chart) *Balances {
	return &Balances{accounts: accounts, chart: chart}
}

// Lock takes row locks on the accounts in ascending id order so concurrent
// units touching the same accounts cannot deadlock.
func (b *Balances) Lock(ctx context.Context, tx *sql.Tx, ids ...int64) (map[int64]*domain.Account, error) {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	sorted := make([]int64, 0, len(unique))
	for id := range unique {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	locked := make(map[int64]*domain.Account, len(sorted))
	for _, id := range sorted {
		acct, err := b.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("Lock: %w", err)
		}
		locked[id] = acct
	}
	return locked, nil
}

func (b *Balances) Adjust(ctx context.Context, tx *sql.Tx, accountID int64, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	if err := b.accounts.AdjustBalance(ctx, tx, accountID, delta); err != nil {
		return fmt.Errorf("Adjust: %w", err)
	}
	return nil
}

// Delta is the change a posting makes to its account's natural-side balance.
func (b *Balances) Delta(acct *domain.Account, e *domain.JournalEntry) decimal.Decimal {
	return b.chart.BalanceDelta(acct, e.Debit, e.Credit)
}
