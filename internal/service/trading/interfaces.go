package trading

import (
	"context"
	"database/sql"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type purchaseRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Purchase) error
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Purchase, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type saleRepository interface {
	Create(ctx context.Context, tx *sql.Tx, s *domain.Sale) error
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Sale, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type paymentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Payment, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type adjustmentRepository interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.InventoryAdjustment) error
	GetByID(ctx context.Context, id int64) (*domain.InventoryAdjustment, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.InventoryAdjustment, error)
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

type returnRepository interface {
	CreatePurchaseReturn(ctx context.Context, tx *sql.Tx, pr *domain.PurchaseReturn) error
	GetPurchaseReturn(ctx context.Context, id int64) (*domain.PurchaseReturn, error)
	GetPurchaseReturnForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.PurchaseReturn, error)
	DeletePurchaseReturn(ctx context.Context, tx *sql.Tx, id int64) error
	PurchaseReturnTotals(ctx context.Context, tx *sql.Tx, purchaseID int64) (domain.ReturnTotals, error)

	CreateSaleReturn(ctx context.Context, tx *sql.Tx, sr *domain.SaleReturn) error
	GetSaleReturn(ctx context.Context, id int64) (*domain.SaleReturn, error)
	GetSaleReturnForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.SaleReturn, error)
	DeleteSaleReturn(ctx context.Context, tx *sql.Tx, id int64) error
	SaleReturnTotals(ctx context.Context, tx *sql.Tx, saleID int64) (domain.ReturnTotals, error)
}

// accountReader validates accounts without locking them. The ledger engine
// takes the row locks in id order when it posts.
type accountReader interface {
	GetInTx(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
}

type contactReader interface {
	GetForShare(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contact, error)
}

type cropReader interface {
	GetForShare(ctx context.Context, tx *sql.Tx, id int64) (*domain.Crop, error)
}

type journalReader interface {
	ListByRef(ctx context.Context, ref string) ([]domain.JournalEntry, error)
}
