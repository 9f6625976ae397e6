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

type SaleRequest struct {
	CropID           int64
	CustomerID       int64
	SaleDate         time.Time
	QuantityKg       decimal.Decimal
	PricingUnit      string
	UnitFactor       decimal.Decimal
	UnitPrice        decimal.Decimal
	AmountReceived   decimal.Decimal
	PaymentAccountID *int64
	InvoiceNumber    *string
	Notes            *string
}

type SaleUpdate struct {
	PreviousID int64        `json:"previous_id"`
	Sale       *domain.Sale `json:"sale"`
}

func (s *Service) AddSale(ctx context.Context, req SaleRequest) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if sale, err = s.addSale(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableSales, sale.ID, domain.AuditInsert, nil, sale)
	})
	if err != nil {
		return nil, fmt.Errorf("AddSale: %w", err)
	}

	logging.FromContext(ctx).Info("sale recorded",
		"sale_id", sale.ID,
		"crop_id", sale.CropID,
		"quantity_kg", sale.QuantityKg,
		"total", sale.TotalAmount,
		"received", sale.AmountReceived,
	)
	return sale, nil
}

func (s *Service) UpdateSale(ctx context.Context, id int64, req SaleRequest) (*SaleUpdate, error) {
	var sale *domain.Sale
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deleteSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if sale, err = s.addSale(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableSales, sale.ID, domain.AuditUpdate, old, sale)
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateSale: %w", err)
	}

	logging.FromContext(ctx).Info("sale replaced", "previous_id", id, "sale_id", sale.ID, "total", sale.TotalAmount)
	return &SaleUpdate{PreviousID: id, Sale: sale}, nil
}

func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		old, err := s.deleteSale(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableSales, id, domain.AuditDelete, old, nil)
	})
	if err != nil {
		return fmt.Errorf("DeleteSale: %w", err)
	}

	logging.FromContext(ctx).Info("sale deleted", "sale_id", id)
	return nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetSale: %w", err)
	}
	return sale, nil
}

func (s *Service) validateSale(req SaleRequest) error {
	if err := validateTrade(req.QuantityKg, req.UnitPrice, req.SaleDate); err != nil {
		return fmt.Errorf("validateSale: %w", err)
	}
	return nil
}

func (s *Service) addSale(ctx context.Context, tx *sql.Tx, req SaleRequest) (*domain.Sale, error) {
	if err := s.validateSale(req); err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}

	line, err := s.priceTrade(ctx, tx, req.CropID, req.QuantityKg, req.PricingUnit, req.UnitFactor, req.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}
	customer, err := s.activeContact(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}

	stock, err := s.ledger.LockStock(ctx, tx, line.crop.ID)
	if err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}
	if line.quantityKg.GreaterThan(stock.QuantityKg) {
		return nil, fmt.Errorf("addSale: %w", domain.NewValidationError(domain.ErrInsufficientStock,
			"selling %s kg %s with %s kg in stock", line.quantityKg, line.crop.Name, stock.QuantityKg))
	}
	avgCost := stock.AverageUnitCost
	cogs := domain.RoundMoney(avgCost.Mul(line.quantityKg))

	received, accountID, err := s.resolveSettlement(ctx, tx, req.AmountReceived, line.total, req.PaymentAccountID)
	if err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}

	sale := &domain.Sale{
		CropID:           line.crop.ID,
		CustomerID:       customer.ID,
		SaleDate:         req.SaleDate,
		QuantityKg:       line.quantityKg,
		PricingUnit:      unitName(line.unit),
		UnitFactor:       line.factor,
		UnitPrice:        line.unitPrice,
		TotalAmount:      line.total,
		AmountReceived:   received,
		PaymentStatus:    domain.SettlementStatusFor(received, line.total),
		PaymentAccountID: accountID,
		InvoiceNumber:    req.InvoiceNumber,
		Notes:            req.Notes,
	}
	if err := s.sales.Create(ctx, tx, sale); err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}

	desc := fmt.Sprintf("Sale of %s kg %s to %s", sale.QuantityKg, line.crop.Name, customer.Name)
	base := domain.JournalEntry{
		EntryDate:  sale.SaleDate,
		SourceType: domain.SourceTypeSale,
		SourceID:   int64Ptr(sale.ID),
	}

	receivable := base
	receivable.AccountID = s.chart.AccountsReceivable
	receivable.Debit = sale.TotalAmount
	receivable.Description = desc
	receivable.TransactionType = txnSale
	receivable.ContactID = int64Ptr(customer.ID)

	revenue := base
	revenue.AccountID = s.chart.SalesRevenue
	revenue.Credit = sale.TotalAmount
	revenue.Description = desc
	revenue.TransactionType = txnSale
	revenue.CropID = int64Ptr(sale.CropID)
	revenue.QuantityKg = decimalPtr(sale.QuantityKg)
	revenue.UnitPrice = decimalPtr(sale.UnitPrice)

	entries := []domain.JournalEntry{receivable, revenue}

	// Stock carried at zero cost leaves without a cost line.
	if cogs.IsPositive() {
		costDesc := fmt.Sprintf("Cost of %s kg %s sold", sale.QuantityKg, line.crop.Name)

		expense := base
		expense.AccountID = s.chart.CostOfGoodsSold
		expense.Debit = cogs
		expense.Description = costDesc
		expense.TransactionType = txnCOGS
		expense.CropID = int64Ptr(sale.CropID)
		expense.QuantityKg = decimalPtr(sale.QuantityKg)
		expense.UnitPrice = decimalPtr(avgCost)

		inventory := base
		inventory.AccountID = s.chart.Inventory
		inventory.Credit = cogs
		inventory.Description = costDesc
		inventory.TransactionType = txnCOGS
		inventory.CropID = int64Ptr(sale.CropID)
		inventory.QuantityKg = decimalPtr(sale.QuantityKg)
		inventory.UnitPrice = decimalPtr(avgCost)

		entries = append(entries, expense, inventory)
	}

	if received.IsPositive() {
		settle := fmt.Sprintf("Receipt from %s for sale %d", customer.Name, sale.ID)

		debit := base
		debit.AccountID = *accountID
		debit.Debit = received
		debit.Description = settle
		debit.TransactionType = txnSaleReceipt

		credit := base
		credit.AccountID = s.chart.AccountsReceivable
		credit.Credit = received
		credit.Description = settle
		credit.TransactionType = txnSaleReceipt
		credit.ContactID = int64Ptr(customer.ID)

		entries = append(entries, debit, credit)
	}

	if err := s.ledger.Post(ctx, tx, sale.Ref(), entries); err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}

	_, err = s.ledger.ApplyMovement(ctx, tx, ledger.Movement{
		CropID:     sale.CropID,
		Direction:  domain.DirectionOut,
		QuantityKg: sale.QuantityKg,
		UnitCost:   avgCost,
		Ref:        sale.Ref(),
		Date:       sale.SaleDate,
		SourceType: domain.SourceTypeSale,
		SourceID:   int64Ptr(sale.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("addSale: %w", err)
	}
	return sale, nil
}

func (s *Service) deleteSale(ctx context.Context, tx *sql.Tx, id int64) (*domain.Sale, error) {
	sale, err := s.sales.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("deleteSale: %w", err)
	}

	returned, err := s.returns.SaleReturnTotals(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("deleteSale: %w", err)
	}
	if returned.Count > 0 {
		return nil, fmt.Errorf("deleteSale: %w", domain.NewValidationError(domain.ErrHasDependents,
			"sale %d has %d returns recorded against it", id, returned.Count))
	}

	if _, err := s.ledger.Reverse(ctx, tx, sale.Ref()); err != nil {
		return nil, fmt.Errorf("deleteSale: %w", err)
	}
	if err := s.sales.Delete(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("deleteSale: %w", err)
	}
	return sale, nil
}
