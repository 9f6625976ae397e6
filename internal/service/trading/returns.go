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

type PurchaseReturnRequest struct {
	PurchaseID int64
	ReturnDate time.Time
	QuantityKg decimal.Decimal
	Reason     *string
}

type SaleReturnRequest struct {
	SaleID     int64
	ReturnDate time.Time
	QuantityKg decimal.Decimal
	// RefundAmount defaults to the returned share of the sale total when zero.
	RefundAmount decimal.Decimal
	Reason       *string
}

func (s *Service) AddPurchaseReturn(ctx context.Context, req PurchaseReturnRequest) (*domain.PurchaseReturn, error) {
	var pr *domain.PurchaseReturn
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if pr, err = s.addPurchaseReturn(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePurchaseReturns, pr.ID, domain.AuditInsert, nil, pr)
	})
	if err != nil {
		return nil, fmt.Errorf("AddPurchaseReturn: %w", err)
	}

	logging.FromContext(ctx).Info("purchase return recorded",
		"return_id", pr.ID,
		"purchase_id", pr.OriginalPurchaseID,
		"quantity_kg", pr.QuantityKg,
		"returned_cost", pr.ReturnedCost,
	)
	return pr, nil
}

func (s *Service) DeletePurchaseReturn(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		pr, err := s.returns.GetPurchaseReturnForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Reverse(ctx, tx, pr.Ref()); err != nil {
			return err
		}
		if err := s.returns.DeletePurchaseReturn(ctx, tx, id); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tablePurchaseReturns, id, domain.AuditDelete, pr, nil)
	})
	if err != nil {
		return fmt.Errorf("DeletePurchaseReturn: %w", err)
	}

	logging.FromContext(ctx).Info("purchase return deleted", "return_id", id)
	return nil
}

func (s *Service) GetPurchaseReturn(ctx context.Context, id int64) (*domain.PurchaseReturn, error) {
	pr, err := s.returns.GetPurchaseReturn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPurchaseReturn: %w", err)
	}
	return pr, nil
}

func (s *Service) AddSaleReturn(ctx context.Context, req SaleReturnRequest) (*domain.SaleReturn, error) {
	var sr *domain.SaleReturn
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if sr, err = s.addSaleReturn(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableSaleReturns, sr.ID, domain.AuditInsert, nil, sr)
	})
	if err != nil {
		return nil, fmt.Errorf("AddSaleReturn: %w", err)
	}

	logging.FromContext(ctx).Info("sale return recorded",
		"return_id", sr.ID,
		"sale_id", sr.OriginalSaleID,
		"quantity_kg", sr.QuantityKg,
		"refund", sr.RefundAmount,
		"cost_restored", sr.CostRestored,
	)
	return sr, nil
}

func (s *Service) DeleteSaleReturn(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		sr, err := s.returns.GetSaleReturnForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Reverse(ctx, tx, sr.Ref()); err != nil {
			return err
		}
		if err := s.returns.DeleteSaleReturn(ctx, tx, id); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableSaleReturns, id, domain.AuditDelete, sr, nil)
	})
	if err != nil {
		return fmt.Errorf("DeleteSaleReturn: %w", err)
	}

	logging.FromContext(ctx).Info("sale return deleted", "return_id", id)
	return nil
}

func (s *Service) GetSaleReturn(ctx context.Context, id int64) (*domain.SaleReturn, error) {
	sr, err := s.returns.GetSaleReturn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetSaleReturn: %w", err)
	}
	return sr, nil
}

func validateReturn(quantityKg decimal.Decimal, date time.Time) error {
	if !domain.RoundQuantity(quantityKg).IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidQuantity, "return quantity %s", quantityKg)
	}
	if date.IsZero() {
		return domain.NewValidationError(nil, "return date is required")
	}
	return nil
}

// remainingQuantity is what can still be returned against an original
// quantity after earlier returns.
func remainingQuantity(original decimal.Decimal, returned domain.ReturnTotals, qty decimal.Decimal) (decimal.Decimal, error) {
	remaining := original.Sub(returned.QuantityKg)
	if qty.GreaterThan(remaining) {
		return decimal.Zero, domain.NewValidationError(domain.ErrReturnExceedsOriginal,
			"returning %s kg with %s kg left to return", qty, remaining)
	}
	return remaining, nil
}

// addPurchaseReturn sends stock back to the supplier at the cost it came in
// at, taken from the purchase's inventory debit.
func (s *Service) addPurchaseReturn(ctx context.Context, tx *sql.Tx, req PurchaseReturnRequest) (*domain.PurchaseReturn, error) {
	if err := validateReturn(req.QuantityKg, req.ReturnDate); err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	qty := domain.RoundQuantity(req.QuantityKg)

	p, err := s.purchases.GetForUpdate(ctx, tx, req.PurchaseID)
	if err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	returned, err := s.returns.PurchaseReturnTotals(ctx, tx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	remaining, err := remainingQuantity(p.QuantityKg, returned, qty)
	if err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}

	if _, err := s.ledger.LockStock(ctx, tx, p.CropID); err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	original, err := s.ledger.EntriesFor(ctx, tx, p.Ref())
	if err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	debit, ok := domain.DebitTo(original, s.chart.Inventory)
	if !ok {
		return nil, fmt.Errorf("addPurchaseReturn: %w", &domain.ConsistencyError{Ref: p.Ref(), Reason: "purchase has no inventory debit"})
	}
	unitCost := domain.RoundCost(debit.Debit.Div(p.QuantityKg))
	cost := returnedShare(debit.Debit, p.QuantityKg, returned.Cost, qty, remaining)

	pr := &domain.PurchaseReturn{
		OriginalPurchaseID: p.ID,
		ReturnDate:         req.ReturnDate,
		QuantityKg:         qty,
		UnitCost:           unitCost,
		ReturnedCost:       cost,
		Reason:             req.Reason,
	}
	if err := s.returns.CreatePurchaseReturn(ctx, tx, pr); err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}

	desc := fmt.Sprintf("Return of %s kg from purchase %d", qty, p.ID)
	payable := domain.JournalEntry{
		EntryDate:       pr.ReturnDate,
		AccountID:       s.chart.AccountsPayable,
		Debit:           cost,
		Description:     desc,
		SourceType:      domain.SourceTypePurchaseReturn,
		SourceID:        int64Ptr(pr.ID),
		TransactionType: txnPurchaseReturn,
		ContactID:       int64Ptr(p.SupplierID),
	}
	inventory := payable
	inventory.AccountID = s.chart.Inventory
	inventory.Debit = decimal.Zero
	inventory.Credit = cost
	inventory.ContactID = nil
	inventory.CropID = int64Ptr(p.CropID)
	inventory.QuantityKg = decimalPtr(qty)
	inventory.UnitPrice = decimalPtr(unitCost)

	if err := s.ledger.Post(ctx, tx, pr.Ref(), []domain.JournalEntry{payable, inventory}); err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}

	_, err = s.ledger.ApplyMovement(ctx, tx, ledger.Movement{
		CropID:     p.CropID,
		Direction:  domain.DirectionOut,
		QuantityKg: qty,
		UnitCost:   unitCost,
		Ref:        pr.Ref(),
		Date:       pr.ReturnDate,
		SourceType: domain.SourceTypePurchaseReturn,
		SourceID:   int64Ptr(pr.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("addPurchaseReturn: %w", err)
	}
	return pr, nil
}

// addSaleReturn refunds the customer and takes the goods back into stock at
// the cost they left at, taken from the sale's COGS debit.
func (s *Service) addSaleReturn(ctx context.Context, tx *sql.Tx, req SaleReturnRequest) (*domain.SaleReturn, error) {
	if err := validateReturn(req.QuantityKg, req.ReturnDate); err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	if req.RefundAmount.IsNegative() {
		return nil, fmt.Errorf("addSaleReturn: %w", domain.NewValidationError(domain.ErrInvalidAmount, "refund %s", req.RefundAmount))
	}
	qty := domain.RoundQuantity(req.QuantityKg)

	sale, err := s.sales.GetForUpdate(ctx, tx, req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	returned, err := s.returns.SaleReturnTotals(ctx, tx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	remaining, err := remainingQuantity(sale.QuantityKg, returned, qty)
	if err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}

	refundable := sale.TotalAmount.Sub(returned.Amount)
	refund := domain.RoundMoney(req.RefundAmount)
	if refund.IsZero() {
		refund = returnedShare(sale.TotalAmount, sale.QuantityKg, returned.Amount, qty, remaining)
	}
	if refund.GreaterThan(refundable) {
		return nil, fmt.Errorf("addSaleReturn: %w", domain.NewValidationError(domain.ErrReturnExceedsOriginal,
			"refund %s with %s left refundable on sale %d", refund, refundable, sale.ID))
	}
	if !refund.IsPositive() {
		return nil, fmt.Errorf("addSaleReturn: %w", domain.NewValidationError(domain.ErrInvalidAmount,
			"%s kg of sale %d rounds to a zero refund", qty, sale.ID))
	}

	if _, err := s.ledger.LockStock(ctx, tx, sale.CropID); err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	original, err := s.ledger.EntriesFor(ctx, tx, sale.Ref())
	if err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	if len(original) == 0 {
		return nil, fmt.Errorf("addSaleReturn: %w", &domain.ConsistencyError{Ref: sale.Ref(), Reason: "sale has no journal entries"})
	}

	// A sale of zero-cost stock posted no COGS and has none to restore.
	var unitCost, cost decimal.Decimal
	if cogs, ok := domain.DebitTo(original, s.chart.CostOfGoodsSold); ok {
		unitCost = domain.RoundCost(cogs.Debit.Div(sale.QuantityKg))
		cost = returnedShare(cogs.Debit, sale.QuantityKg, returned.Cost, qty, remaining)
	}

	sr := &domain.SaleReturn{
		OriginalSaleID: sale.ID,
		ReturnDate:     req.ReturnDate,
		QuantityKg:     qty,
		RefundAmount:   refund,
		CostRestored:   cost,
		Reason:         req.Reason,
	}
	if err := s.returns.CreateSaleReturn(ctx, tx, sr); err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}

	desc := fmt.Sprintf("Return of %s kg from sale %d", qty, sale.ID)
	contra := domain.JournalEntry{
		EntryDate:       sr.ReturnDate,
		AccountID:       s.chart.SalesReturns,
		Debit:           refund,
		Description:     desc,
		SourceType:      domain.SourceTypeSaleReturn,
		SourceID:        int64Ptr(sr.ID),
		TransactionType: txnSaleReturn,
		CropID:          int64Ptr(sale.CropID),
		QuantityKg:      decimalPtr(qty),
	}
	receivable := contra
	receivable.AccountID = s.chart.AccountsReceivable
	receivable.Debit = decimal.Zero
	receivable.Credit = refund
	receivable.ContactID = int64Ptr(sale.CustomerID)
	receivable.CropID, receivable.QuantityKg = nil, nil

	entries := []domain.JournalEntry{contra, receivable}
	if cost.IsPositive() {
		inventory := contra
		inventory.AccountID = s.chart.Inventory
		inventory.Debit = cost
		inventory.TransactionType = txnReturnCost
		inventory.UnitPrice = decimalPtr(unitCost)

		expense := inventory
		expense.AccountID = s.chart.CostOfGoodsSold
		expense.Debit = decimal.Zero
		expense.Credit = cost

		entries = append(entries, inventory, expense)
	}

	if err := s.ledger.Post(ctx, tx, sr.Ref(), entries); err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}

	_, err = s.ledger.ApplyMovement(ctx, tx, ledger.Movement{
		CropID:     sale.CropID,
		Direction:  domain.DirectionIn,
		QuantityKg: qty,
		UnitCost:   unitCost,
		Ref:        sr.Ref(),
		Date:       sr.ReturnDate,
		SourceType: domain.SourceTypeSaleReturn,
		SourceID:   int64Ptr(sr.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("addSaleReturn: %w", err)
	}
	return sr, nil
}
