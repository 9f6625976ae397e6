package ledger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agri-trade-ledger/internal/auth"
	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const testCropID int64 = 7

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testLedger struct {
	engine    *Engine
	journal   *fakeJournal
	accounts  *fakeAccounts
	inventory *fakeInventory
	audit     *fakeAudit
	chart     domain.Chart
}

func newTestLedger() *testLedger {
	chart := domain.DefaultChart()
	tl := &testLedger{
		journal:   &fakeJournal{},
		accounts:  newFakeAccounts(chart.Accounts()...),
		inventory: newFakeInventory(),
		audit:     &fakeAudit{},
		chart:     chart,
	}
	tl.accounts.accounts[1] = &domain.Account{ID: 1, Name: "Assets", Type: domain.AccountTypeHeader, IsActive: true}
	tl.engine = NewEngine(tl.journal, tl.accounts, tl.inventory, tl.audit, chart)
	return tl
}

func (tl *testLedger) purchaseEntries(total, paid string) []domain.JournalEntry {
	crop := testCropID
	qty := dec("100")
	entries := []domain.JournalEntry{
		{AccountID: tl.chart.Inventory, Debit: dec(total), SourceType: domain.SourceTypePurchase, CropID: &crop, QuantityKg: &qty},
		{AccountID: tl.chart.AccountsPayable, Credit: dec(total), SourceType: domain.SourceTypePurchase},
	}
	if paid != "" {
		entries = append(entries,
			domain.JournalEntry{AccountID: tl.chart.AccountsPayable, Debit: dec(paid), SourceType: domain.SourceTypePurchase},
			domain.JournalEntry{AccountID: tl.chart.Cash, Credit: dec(paid), SourceType: domain.SourceTypePurchase},
		)
	}
	return entries
}

func TestEngine_PostPurchaseOnCredit(t *testing.T) {
	tl := newTestLedger()
	ctx := context.Background()

	err := tl.engine.Post(ctx, nil, "PUR-1", tl.purchaseEntries("500", ""))
	require.NoError(t, err)

	assert.True(t, dec("500").Equal(tl.accounts.balance(tl.chart.Inventory)))
	assert.True(t, dec("500").Equal(tl.accounts.balance(tl.chart.AccountsPayable)))
	assert.Len(t, tl.journal.entries, 2)
	for _, e := range tl.journal.entries {
		assert.Equal(t, "PUR-1", e.TransactionRef)
	}
}

func TestEngine_PostWithSettlement(t *testing.T) {
	tl := newTestLedger()

	err := tl.engine.Post(context.Background(), nil, "PUR-1", tl.purchaseEntries("500", "200"))
	require.NoError(t, err)

	assert.True(t, dec("500").Equal(tl.accounts.balance(tl.chart.Inventory)))
	assert.True(t, dec("300").Equal(tl.accounts.balance(tl.chart.AccountsPayable)))
	assert.True(t, dec("-200").Equal(tl.accounts.balance(tl.chart.Cash)))
}

func TestEngine_PostLocksAccountsInOrder(t *testing.T) {
	tl := newTestLedger()

	err := tl.engine.Post(context.Background(), nil, "PUR-1", tl.purchaseEntries("500", "200"))
	require.NoError(t, err)

	assert.Equal(t, []int64{tl.chart.Cash, tl.chart.Inventory, tl.chart.AccountsPayable}, tl.accounts.lockOrder)
}

func TestEngine_PostRejects(t *testing.T) {
	chart := domain.DefaultChart()

	tests := []struct {
		name    string
		entries []domain.JournalEntry
		wantIs  error
	}{
		{
			name: "unbalanced",
			entries: []domain.JournalEntry{
				{AccountID: chart.Inventory, Debit: dec("500"), SourceType: domain.SourceTypePurchase},
				{AccountID: chart.AccountsPayable, Credit: dec("499"), SourceType: domain.SourceTypePurchase},
			},
			wantIs: domain.ErrUnbalancedEntry,
		},
		{
			name: "header account",
			entries: []domain.JournalEntry{
				{AccountID: 1, Debit: dec("5"), SourceType: domain.SourceTypeManual},
				{AccountID: chart.Cash, Credit: dec("5"), SourceType: domain.SourceTypeManual},
			},
			wantIs: domain.ErrInvalidAccount,
		},
		{
			name: "two-sided row",
			entries: []domain.JournalEntry{
				{AccountID: chart.Cash, Debit: dec("5"), Credit: dec("5"), SourceType: domain.SourceTypeManual},
			},
			wantIs: domain.ErrInvalidAmount,
		},
		{
			name:    "empty group",
			entries: nil,
			wantIs:  domain.ErrValidation,
		},
		{
			name: "unknown account",
			entries: []domain.JournalEntry{
				{AccountID: 999, Debit: dec("5"), SourceType: domain.SourceTypeManual},
				{AccountID: chart.Cash, Credit: dec("5"), SourceType: domain.SourceTypeManual},
			},
			wantIs: domain.ErrNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tl := newTestLedger()
			err := tl.engine.Post(context.Background(), nil, "MAN-1", tc.entries)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantIs)
			assert.Empty(t, tl.journal.entries)
		})
	}
}

func TestEngine_ReverseRestoresState(t *testing.T) {
	tl := newTestLedger()
	ctx := context.Background()
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tl.inventory.records[testCropID] = domain.InventoryRecord{CropID: testCropID, QuantityKg: dec("70"), AverageUnitCost: dec("3.3333333333")}
	tl.accounts.accounts[tl.chart.Cash].CurrentBalance = dec("10000")
	beforeStock := tl.inventory.records[testCropID]

	require.NoError(t, tl.engine.Post(ctx, nil, "PUR-1", tl.purchaseEntries("710", "300")))
	_, err := tl.engine.ApplyMovement(ctx, nil, Movement{
		CropID: testCropID, Direction: domain.DirectionIn, QuantityKg: dec("100"),
		UnitCost: dec("7.1"), Ref: "PUR-1", Date: when, SourceType: domain.SourceTypePurchase,
	})
	require.NoError(t, err)

	rev, err := tl.engine.Reverse(ctx, nil, "PUR-1")
	require.NoError(t, err)
	assert.Len(t, rev.Entries, 4)
	assert.Equal(t, 1, rev.Movements)

	assert.True(t, tl.accounts.balance(tl.chart.Inventory).IsZero())
	assert.True(t, tl.accounts.balance(tl.chart.AccountsPayable).IsZero())
	assert.True(t, dec("10000").Equal(tl.accounts.balance(tl.chart.Cash)))

	after := tl.inventory.records[testCropID]
	assert.Equal(t, beforeStock.QuantityKg.String(), after.QuantityKg.String())
	assert.Equal(t, beforeStock.AverageUnitCost.String(), after.AverageUnitCost.String())
	assert.Empty(t, tl.journal.entries)
	assert.Empty(t, tl.inventory.movements)
}

func TestEngine_ReverseWithoutEntries(t *testing.T) {
	tl := newTestLedger()

	_, err := tl.engine.Reverse(context.Background(), nil, "SAL-42")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConsistency)
}

func TestEngine_ReverseMovementOnlyRef(t *testing.T) {
	tl := newTestLedger()
	ctx := context.Background()
	tl.inventory.records[testCropID] = domain.InventoryRecord{CropID: testCropID, QuantityKg: dec("40"), AverageUnitCost: decimal.Zero}

	_, err := tl.engine.ApplyMovement(ctx, nil, Movement{
		CropID: testCropID, Direction: domain.DirectionOut, QuantityKg: dec("15"),
		Ref: "ADJ-3", SourceType: domain.SourceTypeAdjustment,
	})
	require.NoError(t, err)

	rev, err := tl.engine.Reverse(ctx, nil, "ADJ-3")
	require.NoError(t, err)
	assert.Empty(t, rev.Entries)
	assert.Equal(t, 1, rev.Movements)
	assert.True(t, dec("40").Equal(tl.inventory.records[testCropID].QuantityKg))
	assert.Empty(t, tl.inventory.movements)
}

func TestEngine_ReverseSaleAfterLaterPurchase(t *testing.T) {
	tl := newTestLedger()
	ctx := context.Background()
	crop := testCropID
	tl.inventory.records[testCropID] = domain.InventoryRecord{CropID: testCropID, QuantityKg: dec("200"), AverageUnitCost: dec("15")}

	sale := []domain.JournalEntry{
		{AccountID: tl.chart.AccountsReceivable, Debit: dec("1250"), SourceType: domain.SourceTypeSale},
		{AccountID: tl.chart.SalesRevenue, Credit: dec("1250"), SourceType: domain.SourceTypeSale},
		{AccountID: tl.chart.CostOfGoodsSold, Debit: dec("750"), SourceType: domain.SourceTypeSale},
		{AccountID: tl.chart.Inventory, Credit: dec("750"), SourceType: domain.SourceTypeSale, CropID: &crop},
	}
	require.NoError(t, tl.engine.Post(ctx, nil, "SAL-1", sale))
	_, err := tl.engine.ApplyMovement(ctx, nil, Movement{
		CropID: testCropID, Direction: domain.DirectionOut, QuantityKg: dec("50"),
		UnitCost: dec("15"), Ref: "SAL-1", SourceType: domain.SourceTypeSale,
	})
	require.NoError(t, err)

	_, err = tl.engine.ApplyMovement(ctx, nil, Movement{
		CropID: testCropID, Direction: domain.DirectionIn, QuantityKg: dec("150"),
		UnitCost: dec("25"), Ref: "PUR-2", SourceType: domain.SourceTypePurchase,
	})
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(tl.inventory.records[testCropID].AverageUnitCost))

	_, err = tl.engine.Reverse(ctx, nil, "SAL-1")
	require.NoError(t, err)

	// 300kg at 20 plus 50kg returned at the original 15
	rec := tl.inventory.records[testCropID]
	assert.True(t, dec("350").Equal(rec.QuantityKg))
	assert.True(t, dec("19.2857142857").Equal(rec.AverageUnitCost), "avg %s", rec.AverageUnitCost)
	for _, id := range []int64{tl.chart.AccountsReceivable, tl.chart.SalesRevenue, tl.chart.CostOfGoodsSold, tl.chart.Inventory} {
		assert.True(t, tl.accounts.balance(id).IsZero(), "account %d", id)
	}
}

func TestValuation_ApplyOutInsufficient(t *testing.T) {
	tl := newTestLedger()
	tl.inventory.records[testCropID] = domain.InventoryRecord{CropID: testCropID, QuantityKg: dec("10"), AverageUnitCost: dec("4")}

	_, err := tl.engine.ApplyMovement(context.Background(), nil, Movement{
		CropID: testCropID, Direction: domain.DirectionOut, QuantityKg: dec("11"), Ref: "SAL-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, tl.inventory.movements)
	assert.True(t, dec("10").Equal(tl.inventory.records[testCropID].QuantityKg))
}

func TestValuation_ApplyLogsSnapshots(t *testing.T) {
	tl := newTestLedger()
	tl.inventory.records[testCropID] = domain.InventoryRecord{CropID: testCropID, QuantityKg: dec("100"), AverageUnitCost: dec("10")}

	m, err := tl.engine.ApplyMovement(context.Background(), nil, Movement{
		CropID: testCropID, Direction: domain.DirectionIn, QuantityKg: dec("100"), UnitCost: dec("20"), Ref: "PUR-3",
	})
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(m.QuantityBefore))
	assert.True(t, dec("200").Equal(m.QuantityAfter))
	assert.True(t, dec("10").Equal(m.AvgCostBefore))
	assert.True(t, dec("15").Equal(m.AvgCostAfter))
}

func TestAuditLog_Record(t *testing.T) {
	tl := newTestLedger()
	ctx := auth.ContextWithActor(context.Background(), "clerk.ade")

	p := &domain.Purchase{ID: 4, TotalAmount: dec("500")}
	require.NoError(t, tl.engine.Audit(ctx, nil, "purchases", p.ID, domain.AuditInsert, nil, p))
	require.NoError(t, tl.engine.Audit(context.Background(), nil, "purchases", p.ID, domain.AuditDelete, p, nil))

	require.Len(t, tl.audit.entries, 2)
	assert.Equal(t, "clerk.ade", tl.audit.entries[0].Actor)
	assert.Nil(t, tl.audit.entries[0].OldValues)
	assert.Equal(t, domain.SystemActor, tl.audit.entries[1].Actor)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(tl.audit.entries[0].NewValues, &snap))
	assert.Equal(t, float64(4), snap["purchase_id"])
	assert.Equal(t, "500", snap["total_amount"])
}
