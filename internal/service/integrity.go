package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

type UnbalancedRef struct {
	Ref    string          `json:"transaction_ref"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// BalanceDrift is an account whose running balance no longer matches its
// opening balance plus its postings.
type BalanceDrift struct {
	AccountID int64           `json:"account_id"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
}

type IntegrityReport struct {
	UnbalancedRefs []UnbalancedRef `json:"unbalanced_refs"`
	Drift          []BalanceDrift  `json:"balance_drift"`
}

func (r *IntegrityReport) OK() bool {
	return len(r.UnbalancedRefs) == 0 && len(r.Drift) == 0
}

type IntegrityChecker struct {
	accounts accountRepository
	journal  journalRepository
	chart    domain.Chart
}

func NewIntegrityChecker(accounts accountRepository, journal journalRepository, chart domain.Chart) *IntegrityChecker {
	return &IntegrityChecker{accounts: accounts, journal: journal, chart: chart}
}

func (c *IntegrityChecker) Check(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{UnbalancedRefs: []UnbalancedRef{}, Drift: []BalanceDrift{}}

	refs, err := c.journal.UnbalancedRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	for _, r := range refs {
		report.UnbalancedRefs = append(report.UnbalancedRefs, UnbalancedRef{Ref: r.Ref, Debit: r.Debit, Credit: r.Credit})
	}

	postings, err := c.journal.PostingsByAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	accounts, err := c.accounts.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	for i := range accounts {
		a := &accounts[i]
		p := postings[a.ID]
		expected := a.OpeningBalance.Add(c.chart.BalanceDelta(a, p.Debit, p.Credit))
		if !expected.Equal(a.CurrentBalance) {
			report.Drift = append(report.Drift, BalanceDrift{AccountID: a.ID, Expected: expected, Actual: a.CurrentBalance})
		}
	}

	log := logging.FromContext(ctx)
	if report.OK() {
		log.Info("ledger integrity check passed", "accounts", len(accounts))
	} else {
		log.Warn("ledger integrity check failed",
			"unbalanced_refs", len(report.UnbalancedRefs),
			"drifted_accounts", len(report.Drift),
		)
	}
	return report, nil
}
