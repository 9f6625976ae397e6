package service

import (
	"context"
	"database/sql"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type auditor interface {
	Audit(ctx context.Context, tx *sql.Tx, table string, recordID int64, op domain.AuditOperation, oldValue, newValue any) error
}

type accountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Account, error)
	Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error
	CreateIfMissing(ctx context.Context, tx *sql.Tx, a *domain.Account) (bool, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	Deactivate(ctx context.Context, tx *sql.Tx, id int64) error
}

type contactRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Contact) error
	GetByID(ctx context.Context, id int64) (*domain.Contact, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contact, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Contact, error)
	CountDependents(ctx context.Context, tx *sql.Tx, id int64) (int, error)
	Deactivate(ctx context.Context, tx *sql.Tx, id int64) error
}

type cropRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Crop) error
	GetByID(ctx context.Context, id int64) (*domain.Crop, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Crop, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Crop, error)
	CountDependents(ctx context.Context, tx *sql.Tx, id int64) (int, error)
	Deactivate(ctx context.Context, tx *sql.Tx, id int64) error
}

type stockReader interface {
	Get(ctx context.Context, cropID int64) (*domain.InventoryRecord, error)
}

type journalRepository interface {
	CountByAccount(ctx context.Context, tx *sql.Tx, accountID int64) (int, error)
	UnbalancedRefs(ctx context.Context) ([]repository.RefImbalance, error)
	PostingsByAccount(ctx context.Context) (map[int64]repository.AccountPostings, error)
}
