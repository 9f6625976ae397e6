package trading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

type PaymentRequest struct {
	ContactID        int64
	PaymentDate      time.Time
	Amount           decimal.Decimal
	PaymentType      domain.PaymentType
	PaymentAccountID int64
	ReferenceNumber  *string
	Notes            *string
}

type PaymentUpdate struct {
	PreviousID int64           `json:"previous_id"`
	Payment    *domain.Payment `json:"payment"`
}

func (s *Service) AddPayment(ctx context.Context, req PaymentRequest) (*domain.Payment, error) {
	var p *domain.Payment
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if p, err = s.addPayment(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePayments, p.ID, domain.AuditInsert, nil, p)
	})
	if err != nil {
		return nil, fmt.Errorf("AddPayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment recorded",
		"payment_id", p.ID,
		"type", p.PaymentType,
		"contact_id", p.ContactID,
		"amount", p.Amount,
	)
	return p, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id int64, req PaymentRequest) (*PaymentUpdate, error) {
	var p *domain.Payment
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deletePayment(ctx, tx, id)
		if err != nil {
			return err
		}
		if p, err = s.addPayment(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePayments, p.ID, domain.AuditUpdate, old, p)
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment replaced", "previous_id", id, "payment_id", p.ID, "amount", p.Amount)
	return &PaymentUpdate{PreviousID: id, Payment: p}, nil
}

func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deletePayment(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePayments, id, domain.AuditDelete, old, nil)
	})
	if err != nil {
		return fmt.Errorf("DeletePayment: %w", err)
	}

	logging.FromContext(ctx).Info("payment deleted", "payment_id", id)
	return nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	return p, nil
}

func (s *Service) validatePayment(req PaymentRequest) error {
	if !req.PaymentType.IsValid() {
		return fmt.Errorf("validatePayment: %w", domain.NewValidationError(nil, "unknown payment type %q", req.PaymentType))
	}
	if !domain.RoundMoney(req.Amount).IsPositive() {
		return fmt.Errorf("validatePayment: %w", domain.NewValidationError(domain.ErrInvalidAmount, "payment amount %s", req.Amount))
	}
	if req.PaymentDate.IsZero() {
		return fmt.Errorf("validatePayment: %w", domain.NewValidationError(nil, "payment date is required"))
	}
	return nil
}

func (s *Service) addPayment(ctx context.Context, tx *sql.Tx, req PaymentRequest) (*domain.Payment, error) {
	if err := s.validatePayment(req); err != nil {
		return nil, fmt.Errorf("addPayment: %w", err)
	}

	contact, err := s.activeContact(ctx, tx, req.ContactID)
	if err != nil {
		return nil, fmt.Errorf("addPayment: %w", err)
	}
	account, err := s.settlementAccount(ctx, tx, req.PaymentAccountID)
	if err != nil {
		return nil, fmt.Errorf("addPayment: %w", err)
	}

	p := &domain.Payment{
		ContactID:        contact.ID,
		PaymentDate:      req.PaymentDate,
		Amount:           domain.RoundMoney(req.Amount),
		PaymentType:      req.PaymentType,
		PaymentAccountID: account.ID,
		ReferenceNumber:  req.ReferenceNumber,
		Notes:            req.Notes,
	}
	if err := s.payments.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("addPayment: %w", err)
	}

	base := domain.JournalEntry{
		EntryDate:  p.PaymentDate,
		SourceType: domain.SourceTypePayment,
		SourceID:   int64Ptr(p.ID),
	}
	debit, credit := base, base
	debit.Debit = p.Amount
	credit.Credit = p.Amount

	switch p.PaymentType {
	case domain.PaymentTypePay:
		desc := fmt.Sprintf("Payment to %s", contact.Name)
		debit.AccountID = s.chart.AccountsPayable
		debit.ContactID = int64Ptr(contact.ID)
		credit.AccountID = account.ID
		debit.Description, credit.Description = desc, desc
		debit.TransactionType, credit.TransactionType = txnPayment, txnPayment
	case domain.PaymentTypeReceive:
		desc := fmt.Sprintf("Receipt from %s", contact.Name)
		debit.AccountID = account.ID
		credit.AccountID = s.chart.AccountsReceivable
		credit.ContactID = int64Ptr(contact.ID)
		debit.Description, credit.Description = desc, desc
		debit.TransactionType, credit.TransactionType = txnReceipt, txnReceipt
	}

	if err := s.ledger.Post(ctx, tx, p.Ref(), []domain.JournalEntry{debit, credit}); err != nil {
		return nil, fmt.Errorf("addPayment: %w", err)
	}
	return p, nil
}

func (s *Service) deletePayment(ctx context.Context, tx *sql.Tx, id int64) (*domain.Payment, error) {
	p, err := s.payments.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("deletePayment: %w", err)
	}
	if _, err := s.ledger.Reverse(ctx, tx, p.Ref()); err != nil {
		return nil, fmt.Errorf("deletePayment: %w", err)
	}
	if err := s.payments.Delete(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("deletePayment: %w", err)
	}
	return p, nil
}
