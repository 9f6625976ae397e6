package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

const cropColumns = `crop_id, crop_name, category, allowed_pricing_units, is_active, created_at`

type CropRepository struct {
	db *sql.DB
}

func NewCropRepository(db *sql.DB) *CropRepository {
	return &CropRepository{db: db}
}

func (r *CropRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Crop) error {
	units := c.PricingUnits
	if units == nil {
		units = []domain.PricingUnit{}
	}
	raw, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("Create: marshal pricing units: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO crops (crop_name, category, allowed_pricing_units, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING crop_id, is_active, created_at`,
		c.Name, c.Category, string(raw),
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return fmt.Errorf("Create: %w", domain.NewValidationError(nil, "crop %q already exists", c.Name))
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CropRepository) GetByID(ctx context.Context, id int64) (*domain.Crop, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE crop_id = $1`, id,
	)
	c, err := scanCrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{Entity: "crop", ID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CropRepository) GetForShare(ctx context.Context, tx *sql.Tx, id int64) (*domain.Crop, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE crop_id = $1 FOR SHARE`, id,
	)
	c, err := scanCrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForShare: %w", &domain.NotFoundError{Entity: "crop", ID: id})
		}
		return nil, fmt.Errorf("GetForShare: %w", err)
	}
	return c, nil
}

func (r *CropRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Crop, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE crop_id = $1 FOR UPDATE`, id,
	)
	c, err := scanCrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{Entity: "crop", ID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CropRepository) List(ctx context.Context, includeInactive bool) ([]domain.Crop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE is_active OR $1 ORDER BY crop_name`, includeInactive,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.Crop
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return out, nil
}

// CountDependents counts purchases, sales and adjustments of the crop.
func (r *CropRepository) CountDependents(ctx context.Context, tx *sql.Tx, id int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM purchases WHERE crop_id = $1) +
			(SELECT COUNT(*) FROM sales WHERE crop_id = $1) +
			(SELECT COUNT(*) FROM inventory_adjustments WHERE crop_id = $1)`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountDependents: %w", err)
	}
	return n, nil
}

func (r *CropRepository) Deactivate(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE crops SET is_active = FALSE WHERE crop_id = $1`, id); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func scanCrop(s scanner) (*domain.Crop, error) {
	var c domain.Crop
	var raw []byte
	if err := s.Scan(&c.ID, &c.Name, &c.Category, &raw, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.PricingUnits); err != nil {
		return nil, fmt.Errorf("decode pricing units of crop %d: %w", c.ID, err)
	}
	return &c, nil
}
