package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

const tableAccounts = "financial_accounts"

type CreateAccountRequest struct {
	// ID is optional; accounts without one draw from the account sequence.
	ID                 int64
	Name               string
	Type               domain.AccountType
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate time.Time
	AccountNumber      *string
	BankName           *string
}

type AccountService struct {
	db       txRunner
	accounts accountRepository
	journal  journalRepository
	audit    auditor
	chart    domain.Chart
}

func NewAccountService(db txRunner, accounts accountRepository, journal journalRepository, audit auditor, chart domain.Chart) *AccountService {
	return &AccountService{db: db, accounts: accounts, journal: journal, audit: audit, chart: chart}
}

func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	if err := validateAccount(req); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	date := req.OpeningBalanceDate
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	account := &domain.Account{
		ID:                 req.ID,
		Name:               strings.TrimSpace(req.Name),
		Type:               req.Type,
		AccountNumber:      req.AccountNumber,
		BankName:           req.BankName,
		OpeningBalance:     domain.RoundMoney(req.OpeningBalance),
		OpeningBalanceDate: date,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		return s.audit.Audit(ctx, tx, tableAccounts, account.ID, domain.AuditInsert, nil, account)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"account_id", account.ID,
		"type", account.Type,
		"opening_balance", account.OpeningBalance,
	)
	return account, nil
}

// DeactivateAccount retires an account that no ledger row references.
// Accounts filling a chart role stay active.
func (s *AccountService) DeactivateAccount(ctx context.Context, id int64) error {
	if role, ok := s.chart.RoleOf(id); ok {
		return fmt.Errorf("DeactivateAccount: %w", domain.NewValidationError(domain.ErrInvalidAccount,
			"account %d is the configured %s account", id, role))
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return nil
		}

		n, err := s.journal.CountByAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewValidationError(domain.ErrHasDependents, "account %d has %d journal entries", id, n)
		}

		if err := s.accounts.Deactivate(ctx, tx, id); err != nil {
			return err
		}
		updated := *account
		updated.IsActive = false
		return s.audit.Audit(ctx, tx, tableAccounts, id, domain.AuditUpdate, account, &updated)
	})
	if err != nil {
		return fmt.Errorf("DeactivateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account deactivated", "account_id", id)
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// SeedChart creates the configured chart accounts that do not exist yet and
// returns how many were written.
func (s *AccountService) SeedChart(ctx context.Context) (int, error) {
	var created int
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range s.chart.Accounts() {
			a.OpeningBalanceDate = time.Now().UTC().Truncate(24 * time.Hour)
			ok, err := s.accounts.CreateIfMissing(ctx, tx, &a)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("SeedChart: %w", err)
	}

	logging.FromContext(ctx).Info("chart of accounts seeded", "created", created)
	return created, nil
}

func validateAccount(req CreateAccountRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return domain.NewValidationError(nil, "account name is required")
	}
	if !req.Type.IsValid() {
		return domain.NewValidationError(nil, "unknown account type %q", req.Type)
	}
	if req.ID < 0 {
		return domain.NewValidationError(nil, "account id %d", req.ID)
	}
	if req.Type == domain.AccountTypeHeader && !req.OpeningBalance.IsZero() {
		return domain.NewValidationError(domain.ErrInvalidAccount, "header accounts carry no balance")
	}
	return nil
}
