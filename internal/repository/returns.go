package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const purchaseReturnColumns = `return_id, original_purchase_id, return_date, quantity_kg,
	unit_cost, returned_cost, reason, created_at`

const saleReturnColumns = `return_id, original_sale_id, return_date, quantity_kg,
	refund_amount, cost_restored, reason, created_at`

type ReturnRepository struct {
	db *sql.DB
}

func NewReturnRepository(db *sql.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

func (r *ReturnRepository) CreatePurchaseReturn(ctx context.Context, tx *sql.Tx, pr *domain.PurchaseReturn) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO purchase_returns (
			original_purchase_id, return_date, quantity_kg, unit_cost, returned_cost, reason
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING return_id, created_at`,
		pr.OriginalPurchaseID, pr.ReturnDate, pr.QuantityKg, pr.UnitCost, pr.ReturnedCost, pr.Reason,
	).Scan(&pr.ID, &pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreatePurchaseReturn: %w", err)
	}
	return nil
}

func (r *ReturnRepository) GetPurchaseReturn(ctx context.Context, id int64) (*domain.PurchaseReturn, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseReturnColumns+` FROM purchase_returns WHERE return_id = $1`, id,
	)
	pr, err := scanPurchaseReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetPurchaseReturn: %w", &domain.NotFoundError{Entity: "purchase return", ID: id})
		}
		return nil, fmt.Errorf("GetPurchaseReturn: %w", err)
	}
	return pr, nil
}

func (r *ReturnRepository) GetPurchaseReturnForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.PurchaseReturn, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+purchaseReturnColumns+` FROM purchase_returns WHERE return_id = $1 FOR UPDATE`, id,
	)
	pr, err := scanPurchaseReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetPurchaseReturnForUpdate: %w", &domain.NotFoundError{Entity: "purchase return", ID: id})
		}
		return nil, fmt.Errorf("GetPurchaseReturnForUpdate: %w", err)
	}
	return pr, nil
}

func (r *ReturnRepository) DeletePurchaseReturn(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "purchase_returns", "return_id", "purchase return", id)
}

// PurchaseReturnTotals sums the returns already booked against a purchase.
func (r *ReturnRepository) PurchaseReturnTotals(ctx context.Context, tx *sql.Tx, purchaseID int64) (domain.ReturnTotals, error) {
	var t domain.ReturnTotals
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity_kg), 0), COALESCE(SUM(returned_cost), 0), COUNT(*)
		FROM purchase_returns WHERE original_purchase_id = $1`, purchaseID,
	).Scan(&t.QuantityKg, &t.Cost, &t.Count)
	t.Amount = t.Cost
	if err != nil {
		return t, fmt.Errorf("PurchaseReturnTotals: %w", err)
	}
	return t, nil
}

func (r *ReturnRepository) CreateSaleReturn(ctx context.Context, tx *sql.Tx, sr *domain.SaleReturn) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sale_returns (
			original_sale_id, return_date, quantity_kg, refund_amount, cost_restored, reason
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING return_id, created_at`,
		sr.OriginalSaleID, sr.ReturnDate, sr.QuantityKg, sr.RefundAmount, sr.CostRestored, sr.Reason,
	).Scan(&sr.ID, &sr.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateSaleReturn: %w", err)
	}
	return nil
}

func (r *ReturnRepository) GetSaleReturn(ctx context.Context, id int64) (*domain.SaleReturn, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+saleReturnColumns+` FROM sale_returns WHERE return_id = $1`, id,
	)
	sr, err := scanSaleReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetSaleReturn: %w", &domain.NotFoundError{Entity: "sale return", ID: id})
		}
		return nil, fmt.Errorf("GetSaleReturn: %w", err)
	}
	return sr, nil
}

func (r *ReturnRepository) GetSaleReturnForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.SaleReturn, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+saleReturnColumns+` FROM sale_returns WHERE return_id = $1 FOR UPDATE`, id,
	)
	sr, err := scanSaleReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetSaleReturnForUpdate: %w", &domain.NotFoundError{Entity: "sale return", ID: id})
		}
		return nil, fmt.Errorf("GetSaleReturnForUpdate: %w", err)
	}
	return sr, nil
}

func (r *ReturnRepository) DeleteSaleReturn(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "sale_returns", "return_id", "sale return", id)
}

func (r *ReturnRepository) SaleReturnTotals(ctx context.Context, tx *sql.Tx, saleID int64) (domain.ReturnTotals, error) {
	var t domain.ReturnTotals
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity_kg), 0), COALESCE(SUM(refund_amount), 0),
			COALESCE(SUM(cost_restored), 0), COUNT(*)
		FROM sale_returns WHERE original_sale_id = $1`, saleID,
	).Scan(&t.QuantityKg, &t.Amount, &t.Cost, &t.Count)
	if err != nil {
		return t, fmt.Errorf("SaleReturnTotals: %w", err)
	}
	return t, nil
}

func scanPurchaseReturn(s scanner) (*domain.PurchaseReturn, error) {
	var pr domain.PurchaseReturn
	err := s.Scan(
		&pr.ID, &pr.OriginalPurchaseID, &pr.ReturnDate, &pr.QuantityKg,
		&pr.UnitCost, &pr.ReturnedCost, &pr.Reason, &pr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func scanSaleReturn(s scanner) (*domain.SaleReturn, error) {
	var sr domain.SaleReturn
	err := s.Scan(
		&sr.ID, &sr.OriginalSaleID, &sr.ReturnDate, &sr.QuantityKg,
		&sr.RefundAmount, &sr.CostRestored, &sr.Reason, &sr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
