package ledger

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type journalStore interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.JournalEntry) error
	GetByRef(ctx context.Context, tx *sql.Tx, ref string) ([]domain.JournalEntry, error)
	DeleteByRef(ctx context.Context, tx *sql.Tx, ref string) (int64, error)
}

type accountStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	AdjustBalance(ctx context.Context, tx *sql.Tx, id int64, delta decimal.Decimal) error
}

type inventoryStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, cropID int64) (*domain.InventoryRecord, error)
	Save(ctx context.Context, tx *sql.Tx, rec *domain.InventoryRecord) error
	CreateMovement(ctx context.Context, tx *sql.Tx, m *domain.InventoryMovement) error
	MovementsByRef(ctx context.Context, tx *sql.Tx, ref string) ([]domain.InventoryMovement, error)
	DeleteMovementsByRef(ctx context.Context, tx *sql.Tx, ref string) error
}

type auditStore interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.AuditEntry) error
}
