package trading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

type ManualEntryRequest struct {
	DebitAccountID  int64
	CreditAccountID int64
	Amount          decimal.Decimal
	EntryDate       time.Time
	Description     string
}

type ExpenseRequest struct {
	ExpenseAccountID int64
	PaymentAccountID int64
	Amount           decimal.Decimal
	ExpenseDate      time.Time
	Description      string
	ContactID        *int64
}

// Posting is a journal-only event: a balanced group of entries with no
// business record behind it.
type Posting struct {
	Ref     string                `json:"transaction_ref"`
	Entries []domain.JournalEntry `json:"entries"`
}

func (s *Service) AddManualEntry(ctx context.Context, req ManualEntryRequest) (*Posting, error) {
	if err := validateJournalAmount(req.DebitAccountID, req.CreditAccountID, req.Amount, req.EntryDate); err != nil {
		return nil, fmt.Errorf("AddManualEntry: %w", err)
	}

	amount := domain.RoundMoney(req.Amount)
	base := domain.JournalEntry{
		EntryDate:       req.EntryDate,
		Description:     req.Description,
		SourceType:      domain.SourceTypeManual,
		TransactionType: txnManual,
	}
	debit, credit := base, base
	debit.AccountID, debit.Debit = req.DebitAccountID, amount
	credit.AccountID, credit.Credit = req.CreditAccountID, amount

	posting := &Posting{
		Ref:     domain.RefPrefixManual + uuid.NewString(),
		Entries: []domain.JournalEntry{debit, credit},
	}
	if err := s.postStandalone(ctx, posting, nil); err != nil {
		return nil, fmt.Errorf("AddManualEntry: %w", err)
	}

	logging.FromContext(ctx).Info("manual entry posted",
		"ref", posting.Ref,
		"debit_account", req.DebitAccountID,
		"credit_account", req.CreditAccountID,
		"amount", amount,
	)
	return posting, nil
}

func (s *Service) AddExpense(ctx context.Context, req ExpenseRequest) (*Posting, error) {
	if err := validateJournalAmount(req.ExpenseAccountID, req.PaymentAccountID, req.Amount, req.ExpenseDate); err != nil {
		return nil, fmt.Errorf("AddExpense: %w", err)
	}

	amount := domain.RoundMoney(req.Amount)
	base := domain.JournalEntry{
		EntryDate:       req.ExpenseDate,
		Description:     req.Description,
		SourceType:      domain.SourceTypeExpense,
		TransactionType: txnExpense,
		ContactID:       req.ContactID,
	}
	debit, credit := base, base
	debit.AccountID, debit.Debit = req.ExpenseAccountID, amount
	credit.AccountID, credit.Credit = req.PaymentAccountID, amount

	posting := &Posting{
		Ref:     domain.RefPrefixExpense + uuid.NewString(),
		Entries: []domain.JournalEntry{debit, credit},
	}
	check := func(ctx context.Context, tx *sql.Tx) error {
		expense, err := s.accounts.GetInTx(ctx, tx, req.ExpenseAccountID)
		if err != nil {
			return err
		}
		if expense.Type != domain.AccountTypeExpense {
			return domain.NewValidationError(domain.ErrInvalidAccount,
				"account %d is %s, expenses post to an EXPENSE account", expense.ID, expense.Type)
		}
		if _, err := s.settlementAccount(ctx, tx, req.PaymentAccountID); err != nil {
			return err
		}
		return nil
	}
	if err := s.postStandalone(ctx, posting, check); err != nil {
		return nil, fmt.Errorf("AddExpense: %w", err)
	}

	logging.FromContext(ctx).Info("expense posted",
		"ref", posting.Ref,
		"expense_account", req.ExpenseAccountID,
		"payment_account", req.PaymentAccountID,
		"amount", amount,
	)
	return posting, nil
}

// DeleteJournalEntry removes a manual or expense posting. Entries owned by a
// business record are removed by deleting that record.
func (s *Service) DeleteJournalEntry(ctx context.Context, ref string) error {
	if !domain.IsStandaloneRef(ref) {
		return fmt.Errorf("DeleteJournalEntry: %w", domain.NewValidationError(nil,
			"%s belongs to a business record, delete the record instead", ref))
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		entries, err := s.ledger.EntriesFor(ctx, tx, ref)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return &domain.NotFoundError{Entity: "journal entry", ID: ref}
		}
		if _, err := s.ledger.Reverse(ctx, tx, ref); err != nil {
			return err
		}
		old := &Posting{Ref: ref, Entries: entries}
		return s.ledger.Audit(ctx, tx, tableGeneralLedger, entries[0].ID, domain.AuditDelete, old, nil)
	})
	if err != nil {
		return fmt.Errorf("DeleteJournalEntry: %w", err)
	}

	logging.FromContext(ctx).Info("journal entry deleted", "ref", ref)
	return nil
}

// EntriesFor returns the journal entries posted under ref.
func (s *Service) EntriesFor(ctx context.Context, ref string) ([]domain.JournalEntry, error) {
	entries, err := s.journal.ListByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("EntriesFor: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("EntriesFor: %w", &domain.NotFoundError{Entity: "journal entry", ID: ref})
	}
	return entries, nil
}

func (s *Service) postStandalone(ctx context.Context, posting *Posting, check func(context.Context, *sql.Tx) error) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if check != nil {
			if err := check(ctx, tx); err != nil {
				return err
			}
		}
		if err := s.ledger.Post(ctx, tx, posting.Ref, posting.Entries); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableGeneralLedger, posting.Entries[0].ID, domain.AuditInsert, nil, posting)
	})
}

func validateJournalAmount(debitAccountID, creditAccountID int64, amount decimal.Decimal, date time.Time) error {
	if debitAccountID == creditAccountID {
		return domain.NewValidationError(domain.ErrInvalidAccount, "debit and credit account are both %d", debitAccountID)
	}
	if !domain.RoundMoney(amount).IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidAmount, "amount %s", amount)
	}
	if date.IsZero() {
		return domain.NewValidationError(nil, "date is required")
	}
	return nil
}
