package trading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
)

type PurchaseRequest struct {
	CropID           int64
	SupplierID       int64
	PurchaseDate     time.Time
	QuantityKg       decimal.Decimal
	PricingUnit      string
	UnitFactor       decimal.Decimal
	UnitPrice        decimal.Decimal
	AmountPaid       decimal.Decimal
	PaymentAccountID *int64
	InvoiceNumber    *string
	Notes            *string
}

// PurchaseUpdate is the outcome of replacing a purchase. The replacement
// gets a new id.
type PurchaseUpdate struct {
	PreviousID int64            `json:"previous_id"`
	Purchase   *domain.Purchase `json:"purchase"`
}

func (s *Service) AddPurchase(ctx context.Context, req PurchaseRequest) (*domain.Purchase, error) {
	var p *domain.Purchase
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if p, err = s.addPurchase(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePurchases, p.ID, domain.AuditInsert, nil, p)
	})
	if err != nil {
		return nil, fmt.Errorf("AddPurchase: %w", err)
	}

	logging.FromContext(ctx).Info("purchase recorded",
		"purchase_id", p.ID,
		"crop_id", p.CropID,
		"quantity_kg", p.QuantityKg,
		"total", p.TotalAmount,
		"paid", p.AmountPaid,
	)
	return p, nil
}

func (s *Service) UpdatePurchase(ctx context.Context, id int64, req PurchaseRequest) (*PurchaseUpdate, error) {
	var p *domain.Purchase
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deletePurchase(ctx, tx, id)
		if err != nil {
			return err
		}
		if p, err = s.addPurchase(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePurchases, p.ID, domain.AuditUpdate, old, p)
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePurchase: %w", err)
	}

	logging.FromContext(ctx).Info("purchase replaced", "previous_id", id, "purchase_id", p.ID, "total", p.TotalAmount)
	return &PurchaseUpdate{PreviousID: id, Purchase: p}, nil
}

func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deletePurchase(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePurchases, id, domain.AuditDelete, old, nil)
	})
	if err != nil {
		return fmt.Errorf("DeletePurchase: %w", err)
	}

	logging.FromContext(ctx).Info("purchase deleted", "purchase_id", id)
	return nil
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	p, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPurchase: %w", err)
	}
	return p, nil
}

func (s *Service) validatePurchase(req PurchaseRequest) error {
	if err := validateTrade(req.QuantityKg, req.UnitPrice, req.PurchaseDate); err != nil {
		return fmt.Errorf("validatePurchase: %w", err)
	}
	return nil
}

func (s *Service) addPurchase(ctx context.Context, tx *sql.Tx, req PurchaseRequest) (*domain.Purchase, error) {
	if err := s.validatePurchase(req); err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}

	line, err := s.priceTrade(ctx, tx, req.CropID, req.QuantityKg, req.PricingUnit, req.UnitFactor, req.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}
	supplier, err := s.activeContact(ctx, tx, req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}
	if _, err := s.ledger.LockStock(ctx, tx, line.crop.ID); err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}
	paid, accountID, err := s.resolveSettlement(ctx, tx, req.AmountPaid, line.total, req.PaymentAccountID)
	if err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}

	p := &domain.Purchase{
		CropID:           line.crop.ID,
		SupplierID:       supplier.ID,
		PurchaseDate:     req.PurchaseDate,
		QuantityKg:       line.quantityKg,
		PricingUnit:      unitName(line.unit),
		UnitFactor:       line.factor,
		UnitPrice:        line.unitPrice,
		TotalAmount:      line.total,
		AmountPaid:       paid,
		PaymentStatus:    domain.SettlementStatusFor(paid, line.total),
		PaymentAccountID: accountID,
		InvoiceNumber:    req.InvoiceNumber,
		Notes:            req.Notes,
	}
	if err := s.purchases.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}

	unitCost := p.UnitCost()
	desc := fmt.Sprintf("Purchase of %s kg %s from %s", p.QuantityKg, line.crop.Name, supplier.Name)
	base := domain.JournalEntry{
		EntryDate:  p.PurchaseDate,
		SourceType: domain.SourceTypePurchase,
		SourceID:   int64Ptr(p.ID),
		ContactID:  int64Ptr(supplier.ID),
	}

	inventory := base
	inventory.AccountID = s.chart.Inventory
	inventory.Debit = p.TotalAmount
	inventory.Description = desc
	inventory.TransactionType = txnPurchase
	inventory.CropID = int64Ptr(p.CropID)
	inventory.QuantityKg = decimalPtr(p.QuantityKg)
	inventory.UnitPrice = decimalPtr(unitCost)

	payable := base
	payable.AccountID = s.chart.AccountsPayable
	payable.Credit = p.TotalAmount
	payable.Description = desc
	payable.TransactionType = txnPurchase

	entries := []domain.JournalEntry{inventory, payable}
	if paid.IsPositive() {
		settle := fmt.Sprintf("Payment to %s for purchase %d", supplier.Name, p.ID)

		debit := base
		debit.AccountID = s.chart.AccountsPayable
		debit.Debit = paid
		debit.Description = settle
		debit.TransactionType = txnPurchasePayment

		credit := base
		credit.AccountID = *accountID
		credit.Credit = paid
		credit.Description = settle
		credit.TransactionType = txnPurchasePayment

		entries = append(entries, debit, credit)
	}

	if err := s.ledger.Post(ctx, tx, p.Ref(), entries); err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}

	_, err = s.ledger.ApplyMovement(ctx, tx, ledger.Movement{
		CropID:     p.CropID,
		Direction:  domain.DirectionIn,
		QuantityKg: p.QuantityKg,
		UnitCost:   unitCost,
		Ref:        p.Ref(),
		Date:       p.PurchaseDate,
		SourceType: domain.SourceTypePurchase,
		SourceID:   int64Ptr(p.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("addPurchase: %w", err)
	}
	return p, nil
}

// deletePurchase removes a purchase and every ledger and stock effect it
// had. Purchases with returns recorded against them stay.
func (s *Service) deletePurchase(ctx context.Context, tx *sql.Tx, id int64) (*domain.Purchase, error) {
	p, err := s.purchases.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("deletePurchase: %w", err)
	}

	returned, err := s.returns.PurchaseReturnTotals(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("deletePurchase: %w", err)
	}
	if returned.Count > 0 {
		return nil, fmt.Errorf("deletePurchase: %w", domain.NewValidationError(domain.ErrHasDependents,
			"purchase %d has %d returns recorded against it", id, returned.Count))
	}

	if _, err := s.ledger.Reverse(ctx, tx, p.Ref()); err != nil {
		return nil, fmt.Errorf("deletePurchase: %w", err)
	}
	if err := s.purchases.Delete(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("deletePurchase: %w", err)
	}
	return p, nil
}
