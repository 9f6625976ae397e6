package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const purchaseColumns = `purchase_id, crop_id, supplier_id, purchase_date, quantity_kg,
	pricing_unit, unit_factor, unit_price, total_amount, amount_paid, payment_status,
	payment_account_id, invoice_number, notes, created_at`

type PurchaseRepository struct {
	db *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Purchase) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO purchases (
			crop_id, supplier_id, purchase_date, quantity_kg, pricing_unit, unit_factor,
			unit_price, total_amount, amount_paid, payment_status, payment_account_id,
			invoice_number, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING purchase_id, created_at`,
		p.CropID, p.SupplierID, p.PurchaseDate, p.QuantityKg, p.PricingUnit, p.UnitFactor,
		p.UnitPrice, p.TotalAmount, p.AmountPaid, p.PaymentStatus, p.PaymentAccountID,
		p.InvoiceNumber, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id = $1`, id,
	)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "purchase", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PurchaseRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Purchase, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE purchase_id = $1 FOR UPDATE`, id,
	)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "purchase", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

func (r *PurchaseRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "purchases", "purchase_id", "purchase", id)
}

func scanPurchase(s scanner) (*domain.Purchase, error) {
	var p domain.Purchase
	err := s.Scan(
		&p.ID, &p.CropID, &p.SupplierID, &p.PurchaseDate, &p.QuantityKg,
		&p.PricingUnit, &p.UnitFactor, &p.UnitPrice, &p.TotalAmount, &p.AmountPaid, &p.PaymentStatus,
		&p.PaymentAccountID, &p.InvoiceNumber, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// deleteByID removes one row and reports a NotFoundError when nothing matched.
// table and column are package constants, never caller input.
func deleteByID(ctx context.Context, tx *sql.Tx, table, column, entity string, id int64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", &domain.NotFoundError{Entity: entity, ID: id})
	}
	return nil
}
