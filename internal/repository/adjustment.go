package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const adjustmentColumns = `adjustment_id, crop_id, adjustment_date, adjustment_type,
	quantity_kg, unit_cost, total_cost, reason, created_at`

type AdjustmentRepository struct {
	db *sql.DB
}

func NewAdjustmentRepository(db *sql.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.InventoryAdjustment) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO inventory_adjustments (
			crop_id, adjustment_date, adjustment_type, quantity_kg, unit_cost, total_cost, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING adjustment_id, created_at`,
		a.CropID, a.AdjustmentDate, a.AdjustmentType, a.QuantityKg, a.UnitCost, a.TotalCost, a.Reason,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AdjustmentRepository) GetByID(ctx context.Context, id int64) (*domain.InventoryAdjustment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adjustmentColumns+` FROM inventory_adjustments WHERE adjustment_id = $1`, id,
	)
	a, err := scanAdjustment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "inventory adjustment", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AdjustmentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.InventoryAdjustment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+adjustmentColumns+` FROM inventory_adjustments WHERE adjustment_id = $1 FOR UPDATE`, id,
	)
	a, err := scanAdjustment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "inventory adjustment", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AdjustmentRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteByID(ctx, tx, "inventory_adjustments", "adjustment_id", "inventory adjustment", id)
}

func scanAdjustment(s scanner) (*domain.InventoryAdjustment, error) {
	var a domain.InventoryAdjustment
	err := s.Scan(
		&a.ID, &a.CropID, &a.AdjustmentDate, &a.AdjustmentType,
		&a.QuantityKg, &a.UnitCost, &a.TotalCost, &a.Reason, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
