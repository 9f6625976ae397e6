package trading_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agri-trade-ledger/internal/auth"
	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
	"github.com/josh-kwaku/agri-trade-ledger/internal/testutil"
)

type fixture struct {
	db       *sql.DB
	svc      *trading.Service
	chart    domain.Chart
	crop     int64
	contact  int64
	journal  *repository.JournalRepository
	purchase trading.PurchaseRequest
}

var tradeDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func setupTrading(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	chart := testutil.SeedChart(t, db)

	journal := repository.NewJournalRepository(db)
	accounts := repository.NewAccountRepository(db)
	engine := ledger.NewEngine(
		journal,
		accounts,
		repository.NewInventoryRepository(db),
		repository.NewAuditRepository(db),
		chart,
	)
	svc := trading.NewService(
		repository.NewDB(db, sql.LevelReadCommitted),
		engine,
		repository.NewPurchaseRepository(db),
		repository.NewSaleRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewAdjustmentRepository(db),
		repository.NewReturnRepository(db),
		accounts,
		repository.NewContactRepository(db),
		repository.NewCropRepository(db),
		journal,
	)

	f := &fixture{
		db:      db,
		svc:     svc,
		chart:   chart,
		crop:    testutil.SeedCrop(t, db, "Maize", domain.PricingUnit{Name: "bag", Factors: []decimal.Decimal{d("100"), d("50")}}),
		contact: testutil.SeedContact(t, db, "Kwame Farms"),
		journal: journal,
	}
	f.purchase = trading.PurchaseRequest{
		CropID:       f.crop,
		SupplierID:   f.contact,
		PurchaseDate: tradeDate,
		QuantityKg:   d("100"),
		UnitPrice:    d("5"),
	}
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) balance(t *testing.T, id int64) string {
	t.Helper()
	return testutil.GetAccountBalance(t, f.db, id).StringFixed(2)
}

func (f *fixture) stock(t *testing.T) (string, string) {
	t.Helper()
	qty, avg := testutil.GetStock(t, f.db, f.crop)
	return qty.StringFixed(3), avg.StringFixed(10)
}

// snapshot captures every chart balance and the fixture crop's stock.
func (f *fixture) snapshot(t *testing.T) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, a := range f.chart.Accounts() {
		out[a.Name] = f.balance(t, a.ID)
	}
	out["stock_kg"], out["avg_cost"] = f.stock(t)
	return out
}

func (f *fixture) assertBalanced(t *testing.T) {
	t.Helper()
	unbalanced, err := f.journal.UnbalancedRefs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, unbalanced)
}

func TestAddPurchase_OnCredit(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	p, err := f.svc.AddPurchase(ctx, f.purchase)
	require.NoError(t, err)

	assert.Equal(t, "500.00", p.TotalAmount.StringFixed(2))
	assert.Equal(t, domain.SettlementPending, p.PaymentStatus)
	assert.Nil(t, p.PaymentAccountID)

	assert.Equal(t, "500.00", f.balance(t, f.chart.Inventory))
	assert.Equal(t, "500.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Cash))

	qty, avg := f.stock(t)
	assert.Equal(t, "100.000", qty)
	assert.Equal(t, "5.0000000000", avg)

	assert.Equal(t, 2, testutil.CountLedgerEntries(t, f.db, p.Ref()))
	assert.Equal(t, 1, testutil.CountMovements(t, f.db, p.Ref()))
	assert.Equal(t, 1, testutil.CountAuditRows(t, f.db, "purchases", domain.AuditInsert))
	f.assertBalanced(t)
}

func TestAddPurchase_BlendsAverageCost(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "200", "15")

	_, err := f.svc.AddPurchase(ctx, f.purchase)
	require.NoError(t, err)

	// (200 x 15 + 100 x 5) / 300
	qty, avg := f.stock(t)
	assert.Equal(t, "300.000", qty)
	assert.Equal(t, "11.6666666667", avg)
}

func TestAddPurchase_PricedInBags(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	req := f.purchase
	req.QuantityKg = d("500")
	req.PricingUnit = "bag"
	req.UnitFactor = d("50")
	req.UnitPrice = d("120")

	p, err := f.svc.AddPurchase(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "1200.00", p.TotalAmount.StringFixed(2))
	_, avg := f.stock(t)
	assert.Equal(t, "2.4000000000", avg)

	req.UnitFactor = d("25")
	_, err = f.svc.AddPurchase(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidPricingUnit)
}

func TestAddPurchase_SettlementClampedToTotal(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	req := f.purchase
	req.AmountPaid = d("800")
	req.PaymentAccountID = &f.chart.Cash

	p, err := f.svc.AddPurchase(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "500.00", p.AmountPaid.StringFixed(2))
	assert.Equal(t, domain.SettlementPaid, p.PaymentStatus)
	assert.Equal(t, "0.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "-500.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, 4, testutil.CountLedgerEntries(t, f.db, p.Ref()))
	f.assertBalanced(t)
}

func TestAddPurchase_NegativeSettlementPostsOnCredit(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	req := f.purchase
	req.AmountPaid = d("-10")
	req.PaymentAccountID = &f.chart.Cash

	p, err := f.svc.AddPurchase(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "0.00", p.AmountPaid.StringFixed(2))
	assert.Equal(t, domain.SettlementPending, p.PaymentStatus)
	assert.Nil(t, p.PaymentAccountID)
	assert.Equal(t, "500.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, f.db, p.Ref()))
	f.assertBalanced(t)
}

func TestAddPurchase_Rejections(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *trading.PurchaseRequest)
		target error
	}{
		{"zero quantity", func(r *trading.PurchaseRequest) { r.QuantityKg = decimal.Zero }, domain.ErrInvalidQuantity},
		{"negative price", func(r *trading.PurchaseRequest) { r.UnitPrice = d("-1") }, domain.ErrInvalidAmount},
		{"unknown unit", func(r *trading.PurchaseRequest) { r.PricingUnit = "crate" }, domain.ErrInvalidPricingUnit},
		{"revenue account as settlement", func(r *trading.PurchaseRequest) {
			r.AmountPaid = d("100")
			r.PaymentAccountID = &f.chart.SalesRevenue
		}, domain.ErrInvalidAccount},
		{"unknown crop", func(r *trading.PurchaseRequest) { r.CropID = 9999 }, domain.ErrNotFound},
		{"unknown supplier", func(r *trading.PurchaseRequest) { r.SupplierID = 9999 }, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.purchase
			tt.mutate(&req)
			_, err := f.svc.AddPurchase(ctx, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	assert.Equal(t, 0, testutil.CountRows(t, f.db, "purchases"))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "general_ledger"))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Inventory))
}

func TestAddSale_PartialCashSettlement(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "200", "15")

	sale, err := f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:           f.crop,
		CustomerID:       f.contact,
		SaleDate:         tradeDate,
		QuantityKg:       d("50"),
		UnitPrice:        d("25"),
		AmountReceived:   d("1000"),
		PaymentAccountID: &f.chart.Cash,
	})
	require.NoError(t, err)

	assert.Equal(t, "1250.00", sale.TotalAmount.StringFixed(2))
	assert.Equal(t, domain.SettlementPartial, sale.PaymentStatus)

	assert.Equal(t, "250.00", f.balance(t, f.chart.AccountsReceivable))
	assert.Equal(t, "1000.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, "1250.00", f.balance(t, f.chart.SalesRevenue))
	assert.Equal(t, "750.00", f.balance(t, f.chart.CostOfGoodsSold))
	assert.Equal(t, "-750.00", f.balance(t, f.chart.Inventory))

	qty, avg := f.stock(t)
	assert.Equal(t, "150.000", qty)
	assert.Equal(t, "15.0000000000", avg)
	f.assertBalanced(t)
}

func TestAddSale_NegativeSettlementPostsOnCredit(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "200", "15")

	sale, err := f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:           f.crop,
		CustomerID:       f.contact,
		SaleDate:         tradeDate,
		QuantityKg:       d("50"),
		UnitPrice:        d("25"),
		AmountReceived:   d("-10"),
		PaymentAccountID: &f.chart.Cash,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", sale.AmountReceived.StringFixed(2))
	assert.Equal(t, domain.SettlementPending, sale.PaymentStatus)
	assert.Nil(t, sale.PaymentAccountID)
	assert.Equal(t, "1250.00", f.balance(t, f.chart.AccountsReceivable))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, 4, testutil.CountLedgerEntries(t, f.db, sale.Ref()))
	f.assertBalanced(t)
}

func TestDeleteSale_ReversesEverything(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "200", "15")
	before := f.snapshot(t)

	sale, err := f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:           f.crop,
		CustomerID:       f.contact,
		SaleDate:         tradeDate,
		QuantityKg:       d("50"),
		UnitPrice:        d("25"),
		AmountReceived:   d("1000"),
		PaymentAccountID: &f.chart.Cash,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(ctx, sale.ID))

	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, f.db, sale.Ref()))
	assert.Equal(t, 0, testutil.CountMovements(t, f.db, sale.Ref()))
	assert.Equal(t, 1, testutil.CountAuditRows(t, f.db, "sales", domain.AuditDelete))

	_, err = f.svc.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.DeleteSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddSale_InsufficientStock(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "10", "15")

	_, err := f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:     f.crop,
		CustomerID: f.contact,
		SaleDate:   tradeDate,
		QuantityKg: d("10.001"),
		UnitPrice:  d("25"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "sales"))
}

func TestInventoryAdjustments_SurplusThenDamage(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "100", "30")

	surplus, err := f.svc.AddInventoryAdjustment(ctx, trading.AdjustmentRequest{
		CropID:         f.crop,
		AdjustmentDate: tradeDate,
		AdjustmentType: domain.AdjustmentSurplus,
		QuantityKg:     d("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "600.00", surplus.TotalCost.StringFixed(2))
	assert.Equal(t, "600.00", f.balance(t, f.chart.Inventory))
	assert.Equal(t, "600.00", f.balance(t, f.chart.InventoryGain))
	qty, avg := f.stock(t)
	assert.Equal(t, "120.000", qty)
	assert.Equal(t, "30.0000000000", avg)

	_, err = f.svc.AddInventoryAdjustment(ctx, trading.AdjustmentRequest{
		CropID:         f.crop,
		AdjustmentDate: tradeDate,
		AdjustmentType: domain.AdjustmentDamage,
		QuantityKg:     d("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.balance(t, f.chart.Inventory))
	assert.Equal(t, "600.00", f.balance(t, f.chart.InventoryLoss))
	qty, _ = f.stock(t)
	assert.Equal(t, "100.000", qty)

	require.NoError(t, f.svc.DeleteInventoryAdjustment(ctx, surplus.ID))
	assert.Equal(t, "-600.00", f.balance(t, f.chart.Inventory))
	assert.Equal(t, "0.00", f.balance(t, f.chart.InventoryGain))
	f.assertBalanced(t)
}

func TestInventoryAdjustments_SurplusWithoutCostBasis(t *testing.T) {
	f := setupTrading(t)

	_, err := f.svc.AddInventoryAdjustment(context.Background(), trading.AdjustmentRequest{
		CropID:         f.crop,
		AdjustmentDate: tradeDate,
		AdjustmentType: domain.AdjustmentSurplus,
		QuantityKg:     d("5"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInventoryAdjustments_WriteOffAtZeroCost(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "40", "0")

	adj, err := f.svc.AddInventoryAdjustment(ctx, trading.AdjustmentRequest{
		CropID:         f.crop,
		AdjustmentDate: tradeDate,
		AdjustmentType: domain.AdjustmentDamage,
		QuantityKg:     d("15"),
	})
	require.NoError(t, err)
	assert.True(t, adj.TotalCost.IsZero())
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, f.db, adj.Ref()))
	assert.Equal(t, 1, testutil.CountMovements(t, f.db, adj.Ref()))
	assert.Equal(t, "0.00", f.balance(t, f.chart.InventoryLoss))
	qty, _ := f.stock(t)
	assert.Equal(t, "25.000", qty)

	require.NoError(t, f.svc.DeleteInventoryAdjustment(ctx, adj.ID))
	qty, _ = f.stock(t)
	assert.Equal(t, "40.000", qty)
	assert.Equal(t, 0, testutil.CountMovements(t, f.db, adj.Ref()))
	f.assertBalanced(t)
}

func TestDeletePurchase_RestoresStockBitForBit(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "70", "3.3333333333")
	before := f.snapshot(t)

	req := f.purchase
	req.QuantityKg = d("33.333")
	req.UnitPrice = d("7.1234")
	req.AmountPaid = d("100")
	req.PaymentAccountID = &f.chart.Bank
	p, err := f.svc.AddPurchase(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, before, f.snapshot(t))

	require.NoError(t, f.svc.DeletePurchase(ctx, p.ID))
	assert.Equal(t, before, f.snapshot(t))
}

func TestUpdatePurchase_MatchesDeleteThenCreate(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "40", "6")

	x := f.purchase
	y := f.purchase
	y.QuantityKg = d("120")
	y.UnitPrice = d("4.5")
	y.AmountPaid = d("200")
	y.PaymentAccountID = &f.chart.Cash

	first, err := f.svc.AddPurchase(ctx, x)
	require.NoError(t, err)
	update, err := f.svc.UpdatePurchase(ctx, first.ID, y)
	require.NoError(t, err)
	assert.Equal(t, first.ID, update.PreviousID)
	assert.NotEqual(t, first.ID, update.Purchase.ID)
	viaUpdate := f.snapshot(t)

	require.NoError(t, f.svc.DeletePurchase(ctx, update.Purchase.ID))

	second, err := f.svc.AddPurchase(ctx, x)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePurchase(ctx, second.ID))
	_, err = f.svc.AddPurchase(ctx, y)
	require.NoError(t, err)

	assert.Equal(t, viaUpdate, f.snapshot(t))
	assert.Equal(t, 1, testutil.CountAuditRows(t, f.db, "purchases", domain.AuditUpdate))
	f.assertBalanced(t)
}

func TestUpdateSale_ReturnsNewIdentity(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "100", "10")

	req := trading.SaleRequest{
		CropID:     f.crop,
		CustomerID: f.contact,
		SaleDate:   tradeDate,
		QuantityKg: d("30"),
		UnitPrice:  d("20"),
	}
	sale, err := f.svc.AddSale(ctx, req)
	require.NoError(t, err)

	req.QuantityKg = d("90")
	update, err := f.svc.UpdateSale(ctx, sale.ID, req)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, update.PreviousID)
	assert.Equal(t, "1800.00", update.Sale.TotalAmount.StringFixed(2))

	qty, _ := f.stock(t)
	assert.Equal(t, "10.000", qty)
	assert.Equal(t, "900.00", f.balance(t, f.chart.CostOfGoodsSold))
}

func TestDeletePurchase_ConsumedStockRollsBack(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	p, err := f.svc.AddPurchase(ctx, f.purchase)
	require.NoError(t, err)
	_, err = f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:     f.crop,
		CustomerID: f.contact,
		SaleDate:   tradeDate,
		QuantityKg: d("60"),
		UnitPrice:  d("9"),
	})
	require.NoError(t, err)
	before := f.snapshot(t)

	err = f.svc.DeletePurchase(ctx, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, before, f.snapshot(t))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, f.db, p.Ref()))
	assert.Equal(t, 1, testutil.CountMovements(t, f.db, p.Ref()))
	_, err = f.svc.GetPurchase(ctx, p.ID)
	assert.NoError(t, err)
}

func TestPayments_PayAndReceive(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	pay, err := f.svc.AddPayment(ctx, trading.PaymentRequest{
		ContactID:        f.contact,
		PaymentDate:      tradeDate,
		Amount:           d("300"),
		PaymentType:      domain.PaymentTypePay,
		PaymentAccountID: f.chart.Bank,
	})
	require.NoError(t, err)
	assert.Equal(t, "-300.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "-300.00", f.balance(t, f.chart.Bank))

	_, err = f.svc.AddPayment(ctx, trading.PaymentRequest{
		ContactID:        f.contact,
		PaymentDate:      tradeDate,
		Amount:           d("120"),
		PaymentType:      domain.PaymentTypeReceive,
		PaymentAccountID: f.chart.Cash,
	})
	require.NoError(t, err)
	assert.Equal(t, "120.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, "-120.00", f.balance(t, f.chart.AccountsReceivable))

	update, err := f.svc.UpdatePayment(ctx, pay.ID, trading.PaymentRequest{
		ContactID:        f.contact,
		PaymentDate:      tradeDate,
		Amount:           d("50"),
		PaymentType:      domain.PaymentTypePay,
		PaymentAccountID: f.chart.Cash,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", f.balance(t, f.chart.Bank))
	assert.Equal(t, "70.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, "-50.00", f.balance(t, f.chart.AccountsPayable))

	require.NoError(t, f.svc.DeletePayment(ctx, update.Payment.ID))
	assert.Equal(t, "0.00", f.balance(t, f.chart.AccountsPayable))

	_, err = f.svc.AddPayment(ctx, trading.PaymentRequest{
		ContactID:        f.contact,
		PaymentDate:      tradeDate,
		Amount:           d("10"),
		PaymentType:      domain.PaymentTypePay,
		PaymentAccountID: f.chart.Inventory,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
	f.assertBalanced(t)
}

func TestPurchaseReturns(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()

	p, err := f.svc.AddPurchase(ctx, f.purchase)
	require.NoError(t, err)

	pr, err := f.svc.AddPurchaseReturn(ctx, trading.PurchaseReturnRequest{
		PurchaseID: p.ID,
		ReturnDate: tradeDate,
		QuantityKg: d("40"),
	})
	require.NoError(t, err)
	assert.Equal(t, "200.00", pr.ReturnedCost.StringFixed(2))
	assert.Equal(t, "300.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "300.00", f.balance(t, f.chart.Inventory))
	qty, avg := f.stock(t)
	assert.Equal(t, "60.000", qty)
	assert.Equal(t, "5.0000000000", avg)

	_, err = f.svc.AddPurchaseReturn(ctx, trading.PurchaseReturnRequest{
		PurchaseID: p.ID,
		ReturnDate: tradeDate,
		QuantityKg: d("60.001"),
	})
	assert.ErrorIs(t, err, domain.ErrReturnExceedsOriginal)

	err = f.svc.DeletePurchase(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrHasDependents)

	require.NoError(t, f.svc.DeletePurchaseReturn(ctx, pr.ID))
	assert.Equal(t, "500.00", f.balance(t, f.chart.AccountsPayable))
	require.NoError(t, f.svc.DeletePurchase(ctx, p.ID))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Inventory))
	f.assertBalanced(t)
}

func TestSaleReturns(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "200", "15")

	sale, err := f.svc.AddSale(ctx, trading.SaleRequest{
		CropID:     f.crop,
		CustomerID: f.contact,
		SaleDate:   tradeDate,
		QuantityKg: d("50"),
		UnitPrice:  d("25"),
	})
	require.NoError(t, err)

	sr, err := f.svc.AddSaleReturn(ctx, trading.SaleReturnRequest{
		SaleID:     sale.ID,
		ReturnDate: tradeDate,
		QuantityKg: d("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", sr.RefundAmount.StringFixed(2))
	assert.Equal(t, "150.00", sr.CostRestored.StringFixed(2))

	assert.Equal(t, "250.00", f.balance(t, f.chart.SalesReturns))
	assert.Equal(t, "1000.00", f.balance(t, f.chart.AccountsReceivable))
	assert.Equal(t, "600.00", f.balance(t, f.chart.CostOfGoodsSold))
	assert.Equal(t, "-600.00", f.balance(t, f.chart.Inventory))
	qty, avg := f.stock(t)
	assert.Equal(t, "160.000", qty)
	assert.Equal(t, "15.0000000000", avg)

	_, err = f.svc.AddSaleReturn(ctx, trading.SaleReturnRequest{
		SaleID:       sale.ID,
		ReturnDate:   tradeDate,
		QuantityKg:   d("5"),
		RefundAmount: d("1000.01"),
	})
	assert.ErrorIs(t, err, domain.ErrReturnExceedsOriginal)

	err = f.svc.DeleteSale(ctx, sale.ID)
	assert.ErrorIs(t, err, domain.ErrHasDependents)

	require.NoError(t, f.svc.DeleteSaleReturn(ctx, sr.ID))
	assert.Equal(t, "0.00", f.balance(t, f.chart.SalesReturns))
	assert.Equal(t, "750.00", f.balance(t, f.chart.CostOfGoodsSold))
	f.assertBalanced(t)
}

func TestManualEntriesAndExpenses(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedAccount(t, f.db, 50201, "Transport", domain.AccountTypeExpense, "0")

	expense, err := f.svc.AddExpense(ctx, trading.ExpenseRequest{
		ExpenseAccountID: 50201,
		PaymentAccountID: f.chart.Cash,
		Amount:           d("120"),
		ExpenseDate:      tradeDate,
		Description:      "Truck hire",
	})
	require.NoError(t, err)
	assert.True(t, domain.IsStandaloneRef(expense.Ref))
	assert.Equal(t, "120.00", f.balance(t, 50201))
	assert.Equal(t, "-120.00", f.balance(t, f.chart.Cash))

	entries, err := f.svc.EntriesFor(ctx, expense.Ref)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	manual, err := f.svc.AddManualEntry(ctx, trading.ManualEntryRequest{
		DebitAccountID:  f.chart.Bank,
		CreditAccountID: f.chart.Cash,
		Amount:          d("80"),
		EntryDate:       tradeDate,
		Description:     "Cash deposit",
	})
	require.NoError(t, err)
	assert.Equal(t, "80.00", f.balance(t, f.chart.Bank))

	require.NoError(t, f.svc.DeleteJournalEntry(ctx, manual.Ref))
	require.NoError(t, f.svc.DeleteJournalEntry(ctx, expense.Ref))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, "0.00", f.balance(t, f.chart.Bank))

	err = f.svc.DeleteJournalEntry(ctx, expense.Ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.svc.DeleteJournalEntry(ctx, "PUR-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.AddExpense(ctx, trading.ExpenseRequest{
		ExpenseAccountID: f.chart.SalesRevenue,
		PaymentAccountID: f.chart.Cash,
		Amount:           d("10"),
		ExpenseDate:      tradeDate,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestAudit_RecordsActorFromContext(t *testing.T) {
	f := setupTrading(t)
	ctx := auth.ContextWithActor(context.Background(), "ama")

	p, err := f.svc.AddPurchase(ctx, f.purchase)
	require.NoError(t, err)

	entries, err := repository.NewAuditRepository(f.db).ListByRecord(ctx, "purchases", p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ama", entries[0].Actor)
	assert.Equal(t, domain.AuditInsert, entries[0].Operation)
	assert.Nil(t, entries[0].OldValues)
	assert.Contains(t, string(entries[0].NewValues), `"purchase_id"`)
}

func TestConcurrentSales_NeverOversell(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	testutil.SeedStock(t, f.db, f.crop, "100", "10")

	const sellers = 12
	var wg sync.WaitGroup
	errs := make([]error, sellers)
	for i := range sellers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AddSale(ctx, trading.SaleRequest{
				CropID:           f.crop,
				CustomerID:       f.contact,
				SaleDate:         tradeDate,
				QuantityKg:       d("10"),
				UnitPrice:        d("12"),
				AmountReceived:   d("60"),
				PaymentAccountID: &f.chart.Cash,
			})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, 2, short)

	qty, _ := f.stock(t)
	assert.Equal(t, "0.000", qty)
	assert.Equal(t, "600.00", f.balance(t, f.chart.Cash))
	assert.Equal(t, "1000.00", f.balance(t, f.chart.CostOfGoodsSold))
	f.assertBalanced(t)
}

func TestConcurrentSettledPurchasesAndManualEntries(t *testing.T) {
	f := setupTrading(t)
	ctx := context.Background()
	till := int64(90001)
	testutil.SeedAccount(t, f.db, till, "Till", domain.AccountTypeCash, "0")

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, 2*workers)
	for i := range workers {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			req := f.purchase
			req.AmountPaid = d("100")
			req.PaymentAccountID = &till
			_, errs[i] = f.svc.AddPurchase(ctx, req)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, errs[workers+i] = f.svc.AddManualEntry(ctx, trading.ManualEntryRequest{
				DebitAccountID:  f.chart.AccountsPayable,
				CreditAccountID: till,
				Amount:          d("10"),
				EntryDate:       tradeDate,
				Description:     "Supplier advance",
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, "2340.00", f.balance(t, f.chart.AccountsPayable))
	assert.Equal(t, "-660.00", f.balance(t, till))
	qty, _ := f.stock(t)
	assert.Equal(t, "600.000", qty)
	f.assertBalanced(t)
}
