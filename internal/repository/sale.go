package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const saleColumns = `sale_id, crop_id, customer_id, sale_date, quantity_kg,
	pricing_unit, unit_factor, unit_price, total_amount, amount_received, payment_status,
	payment_account_id, invoice_number, notes, created_at`

type SaleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) Create(ctx context.Context, tx *sql.Tx, s *domain.Sale) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sales (
			crop_id, customer_id, sale_date, quantity_kg, pricing_unit, unit_factor,
			unit_price, total_amount, amount_received, payment_status, payment_account_id,
			invoice_number, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING sale_id, created_at`,
		s.CropID, s.CustomerID, s.SaleDate, s.QuantityKg, s.PricingUnit, s.UnitFactor,
		s.UnitPrice, s.TotalAmount, s.AmountReceived, s.PaymentStatus, s.PaymentAccountID,
		s.InvoiceNumber, s.Notes,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE sale_id = $1`, id,
	)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "sale", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return s, nil
}

func (r *SaleRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Sale, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE sale_id = $1 FOR UPDATE`, id,
	)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "sale", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return s, nil
}

func (r *SaleRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "sales", "sale_id", "sale", id)
}

func scanSale(sc scanner) (*domain.Sale, error) {
	var s domain.Sale
	err := sc.Scan(
		&s.ID, &s.CropID, &s.CustomerID, &s.SaleDate, &s.QuantityKg,
		&s.PricingUnit, &s.UnitFactor, &s.UnitPrice, &s.TotalAmount, &s.AmountReceived, &s.PaymentStatus,
		&s.PaymentAccountID, &s.InvoiceNumber, &s.Notes, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
