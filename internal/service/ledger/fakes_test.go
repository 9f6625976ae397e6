package ledger

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type fakeJournal struct {
	entries []domain.JournalEntry
	nextID  int64
}

func (f *fakeJournal) Create(_ context.Context, _ *sql.Tx, e *domain.JournalEntry) error {
	f.nextID++
	e.ID = f.nextID
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeJournal) GetByRef(_ context.Context, _ *sql.Tx, ref string) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for _, e := range f.entries {
		if e.TransactionRef == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeJournal) DeleteByRef(_ context.Context, _ *sql.Tx, ref string) (int64, error) {
	kept := f.entries[:0]
	var n int64
	for _, e := range f.entries {
		if e.TransactionRef == ref {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

type fakeAccounts struct {
	accounts  map[int64]*domain.Account
	lockOrder []int64
}

func newFakeAccounts(accounts ...domain.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: make(map[int64]*domain.Account)}
	for i := range accounts {
		a := accounts[i]
		a.IsActive = true
		f.accounts[a.ID] = &a
	}
	return f
}

func (f *fakeAccounts) GetForUpdate(_ context.Context, _ *sql.Tx, id int64) (*domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "account", ID: id}
	}
	f.lockOrder = append(f.lockOrder, id)
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) AdjustBalance(_ context.Context, _ *sql.Tx, id int64, delta decimal.Decimal) error {
	a, ok := f.accounts[id]
	if !ok {
		return &domain.NotFoundError{Entity: "account", ID: id}
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	return nil
}

func (f *fakeAccounts) balance(id int64) decimal.Decimal {
	return f.accounts[id].CurrentBalance
}

type fakeInventory struct {
	records   map[int64]domain.InventoryRecord
	movements []domain.InventoryMovement
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{records: make(map[int64]domain.InventoryRecord)}
}

func (f *fakeInventory) GetForUpdate(_ context.Context, _ *sql.Tx, cropID int64) (*domain.InventoryRecord, error) {
	rec, ok := f.records[cropID]
	if !ok {
		rec = domain.InventoryRecord{CropID: cropID}
		f.records[cropID] = rec
	}
	return &rec, nil
}

func (f *fakeInventory) Save(_ context.Context, _ *sql.Tx, rec *domain.InventoryRecord) error {
	f.records[rec.CropID] = *rec
	return nil
}

func (f *fakeInventory) CreateMovement(_ context.Context, _ *sql.Tx, m *domain.InventoryMovement) error {
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeInventory) MovementsByRef(_ context.Context, _ *sql.Tx, ref string) ([]domain.InventoryMovement, error) {
	var out []domain.InventoryMovement
	for _, m := range f.movements {
		if m.TransactionRef == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeInventory) DeleteMovementsByRef(_ context.Context, _ *sql.Tx, ref string) error {
	kept := f.movements[:0]
	for _, m := range f.movements {
		if m.TransactionRef != ref {
			kept = append(kept, m)
		}
	}
	f.movements = kept
	return nil
}

type fakeAudit struct {
	entries []domain.AuditEntry
}

func (f *fakeAudit) Create(_ context.Context, _ *sql.Tx, e *domain.AuditEntry) error {
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}
