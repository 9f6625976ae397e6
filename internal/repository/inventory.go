package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const movementColumns = `movement_id, crop_id, transaction_ref, movement_date, direction,
	quantity_kg, unit_cost, quantity_before, quantity_after, avg_cost_before,
	avg_cost_after, source_type, source_id, created_at`

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Get returns the stock position of a crop. A crop that never moved has an
// empty position.
func (r *InventoryRepository) Get(ctx context.Context, cropID int64) (*domain.InventoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT crop_id, current_stock_kg, average_cost_per_kg, last_updated
		FROM inventory WHERE crop_id = $1`, cropID,
	)
	rec, err := scanInventoryRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.InventoryRecord{CropID: cropID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return rec, nil
}

// GetForUpdate locks the crop's stock row, creating an empty one first so
// the lock always has a row to hold.
func (r *InventoryRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, cropID int64) (*domain.InventoryRecord, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (crop_id) VALUES ($1) ON CONFLICT (crop_id) DO NOTHING`, cropID,
	)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "crop", ID: cropID})
		}
		return nil, fmt.Errorf("GetForUpdate: ensure row: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT crop_id, current_stock_kg, average_cost_per_kg, last_updated
		FROM inventory WHERE crop_id = $1 FOR UPDATE`, cropID,
	)
	rec, err := scanInventoryRecord(row)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return rec, nil
}

func (r *InventoryRepository) Save(ctx context.Context, tx *sql.Tx, rec *domain.InventoryRecord) error {
	err := tx.QueryRowContext(ctx,
		`UPDATE inventory SET current_stock_kg = $1, average_cost_per_kg = $2, last_updated = now()
		WHERE crop_id = $3 RETURNING last_updated`,
		rec.QuantityKg, rec.AverageUnitCost, rec.CropID,
	).Scan(&rec.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("Save: %w", &domain.NotFoundError{Entity: "inventory", ID: rec.CropID})
		}
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (r *InventoryRepository) CreateMovement(ctx context.Context, tx *sql.Tx, m *domain.InventoryMovement) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO inventory_movements (
			crop_id, transaction_ref, movement_date, direction, quantity_kg, unit_cost,
			quantity_before, quantity_after, avg_cost_before, avg_cost_after,
			source_type, source_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING movement_id, created_at`,
		m.CropID, m.TransactionRef, m.MovementDate, m.Direction, m.QuantityKg, m.UnitCost,
		m.QuantityBefore, m.QuantityAfter, m.AvgCostBefore, m.AvgCostAfter,
		m.SourceType, m.SourceID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateMovement: %w", err)
	}
	return nil
}

func (r *InventoryRepository) MovementsByRef(ctx context.Context, tx *sql.Tx, ref string) ([]domain.InventoryMovement, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements
		WHERE transaction_ref = $1 ORDER BY movement_id`, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("MovementsByRef: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryMovement
	for rows.Next() {
		var m domain.InventoryMovement
		err := rows.Scan(
			&m.ID, &m.CropID, &m.TransactionRef, &m.MovementDate, &m.Direction,
			&m.QuantityKg, &m.UnitCost, &m.QuantityBefore, &m.QuantityAfter, &m.AvgCostBefore,
			&m.AvgCostAfter, &m.SourceType, &m.SourceID, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("MovementsByRef: scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MovementsByRef: rows: %w", err)
	}
	return out, nil
}

func (r *InventoryRepository) DeleteMovementsByRef(ctx context.Context, tx *sql.Tx, ref string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_movements WHERE transaction_ref = $1`, ref); err != nil {
		return fmt.Errorf("DeleteMovementsByRef: %w", err)
	}
	return nil
}

func scanInventoryRecord(s scanner) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	if err := s.Scan(&rec.CropID, &rec.QuantityKg, &rec.AverageUnitCost, &rec.LastUpdated); err != nil {
		return nil, err
	}
	return &rec, nil
}
