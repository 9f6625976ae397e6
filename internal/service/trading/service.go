package trading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
)

const (
	tablePurchases       = "purchases"
	tableSales           = "sales"
	tablePayments        = "payments"
	tableAdjustments     = "inventory_adjustments"
	tablePurchaseReturns = "purchase_returns"
	tableSaleReturns     = "sale_returns"
	tableGeneralLedger   = "general_ledger"
)

// Service is the operation surface of the trading core. Every exported
// mutation runs as exactly one database transaction.
type Service struct {
	db          txRunner
	ledger      *ledger.Engine
	chart       domain.Chart
	purchases   purchaseRepository
	sales       saleRepository
	payments    paymentRepository
	adjustments adjustmentRepository
	returns     returnRepository
	accounts    accountReader
	contacts    contactReader
	crops       cropReader
	journal     journalReader
}

func NewService(
	db txRunner,
	engine *ledger.Engine,
	purchases purchaseRepository,
	sales saleRepository,
	payments paymentRepository,
	adjustments adjustmentRepository,
	returns returnRepository,
	accounts accountReader,
	contacts contactReader,
	crops cropReader,
	journal journalReader,
) *Service {
	return &Service{
		db:          db,
		ledger:      engine,
		chart:       engine.Chart(),
		purchases:   purchases,
		sales:       sales,
		payments:    payments,
		adjustments: adjustments,
		returns:     returns,
		accounts:    accounts,
		contacts:    contacts,
		crops:       crops,
		journal:     journal,
	}
}

func (s *Service) activeCrop(ctx context.Context, tx *sql.Tx, id int64) (*domain.Crop, error) {
	c, err := s.crops.GetForShare(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("activeCrop: %w", err)
	}
	if !c.IsActive {
		return nil, fmt.Errorf("activeCrop: %w", domain.NewValidationError(domain.ErrInactive, "crop %d is inactive", id))
	}
	return c, nil
}

func (s *Service) activeContact(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contact, error) {
	c, err := s.contacts.GetForShare(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("activeContact: %w", err)
	}
	if !c.IsActive {
		return nil, fmt.Errorf("activeContact: %w", domain.NewValidationError(domain.ErrInactive, "contact %d is inactive", id))
	}
	return c, nil
}

// settlementAccount loads a cash or bank account that money can move through.
func (s *Service) settlementAccount(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	a, err := s.accounts.GetInTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("settlementAccount: %w", err)
	}
	if !a.Type.IsSettlement() {
		return nil, fmt.Errorf("settlementAccount: %w", domain.NewValidationError(domain.ErrInvalidAccount,
			"account %d is %s, settlements need a CASH or BANK account", id, a.Type))
	}
	if !a.IsActive {
		return nil, fmt.Errorf("settlementAccount: %w", domain.NewValidationError(domain.ErrInactive, "account %d is inactive", id))
	}
	return a, nil
}

// resolveSettlement clamps the settled amount to total. It returns a nil
// account when nothing is settled.
func (s *Service) resolveSettlement(ctx context.Context, tx *sql.Tx, requested, total decimal.Decimal, accountID *int64) (decimal.Decimal, *int64, error) {
	settled := domain.SettledAmount(requested, total, accountID)
	if !settled.IsPositive() {
		return decimal.Zero, nil, nil
	}
	if _, err := s.settlementAccount(ctx, tx, *accountID); err != nil {
		return decimal.Zero, nil, fmt.Errorf("resolveSettlement: %w", err)
	}
	id := *accountID
	return settled, &id, nil
}

// tradeLine is the priced quantity of a purchase or sale.
type tradeLine struct {
	crop       *domain.Crop
	quantityKg decimal.Decimal
	unit       string
	factor     decimal.Decimal
	unitPrice  decimal.Decimal
	total      decimal.Decimal
}

func (s *Service) priceTrade(ctx context.Context, tx *sql.Tx, cropID int64, quantityKg decimal.Decimal, unit string, factor, unitPrice decimal.Decimal) (*tradeLine, error) {
	crop, err := s.activeCrop(ctx, tx, cropID)
	if err != nil {
		return nil, fmt.Errorf("priceTrade: %w", err)
	}
	resolved, err := crop.ResolveFactor(unit, factor)
	if err != nil {
		return nil, fmt.Errorf("priceTrade: %w", err)
	}

	line := &tradeLine{
		crop:       crop,
		quantityKg: domain.RoundQuantity(quantityKg),
		unit:       unit,
		factor:     resolved,
		unitPrice:  domain.RoundPrice(unitPrice),
	}
	line.total = domain.LineTotal(line.quantityKg, line.factor, line.unitPrice)
	if !line.total.IsPositive() {
		return nil, fmt.Errorf("priceTrade: %w", domain.NewValidationError(domain.ErrInvalidAmount,
			"%s kg at %s per %s rounds to a zero total", line.quantityKg, line.unitPrice, unitName(unit)))
	}
	return line, nil
}

func unitName(unit string) string {
	if unit == "" {
		return "kg"
	}
	return unit
}

func validateTrade(quantityKg, unitPrice decimal.Decimal, date time.Time) error {
	if !quantityKg.IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidQuantity, "quantity %s", quantityKg)
	}
	if !unitPrice.IsPositive() {
		return domain.NewValidationError(domain.ErrInvalidAmount, "unit price %s", unitPrice)
	}
	if date.IsZero() {
		return domain.NewValidationError(nil, "date is required")
	}
	return nil
}

// returnedShare is the part of an original amount carried by a partial
// return. The last return takes whatever is left so no rounding residue
// remains.
func returnedShare(original, originalQty, alreadyReturned, qty, remainingQty decimal.Decimal) decimal.Decimal {
	if qty.Equal(remainingQty) {
		return original.Sub(alreadyReturned)
	}
	return domain.RoundMoney(original.Div(originalQty).Mul(qty))
}

func int64Ptr(v int64) *int64 {
	return &v
}

func decimalPtr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

const (
	txnPurchase        = "PURCHASE"
	txnPurchasePayment = "PURCHASE_PAYMENT"
	txnSale            = "SALE"
	txnCOGS            = "COGS"
	txnSaleReceipt     = "SALE_RECEIPT"
	txnPayment         = "PAYMENT"
	txnReceipt         = "RECEIPT"
	txnInventoryGain   = "INVENTORY_GAIN"
	txnInventoryLoss   = "INVENTORY_LOSS"
	txnPurchaseReturn  = "PURCHASE_RETURN"
	txnSaleReturn      = "SALE_RETURN"
	txnReturnCost      = "SALE_RETURN_COST"
	txnManual          = "MANUAL"
	txnExpense         = "EXPENSE"
)
