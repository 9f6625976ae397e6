package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// Valuation keeps per-crop stock quantity and moving weighted-average cost.
type Valuation struct {
	store inventoryStore
}

func NewValuation(store inventoryStore) *Valuation {
	return &Valuation{store: store}
}

// Movement is one stock change. For OUT movements UnitCost is the cost the
// stock leaves at and is only recorded, never blended.
type Movement struct {
	CropID     int64
	Direction  domain.Direction
	QuantityKg decimal.Decimal
	UnitCost   decimal.Decimal
	Ref        string
	Date       time.Time
	SourceType domain.SourceType
	SourceID   *int64
}

func (v *Valuation) Lock(ctx context.Context, tx *sql.Tx, cropID int64) (*domain.InventoryRecord, error) {
	rec, err := v.store.GetForUpdate(ctx, tx, cropID)
	if err != nil {
		return nil, fmt.Errorf("Lock: %w", err)
	}
	return rec, nil
}

func (v *Valuation) Apply(ctx context.Context, tx *sql.Tx, m Movement) (*domain.InventoryMovement, error) {
	if !m.QuantityKg.IsPositive() {
		return nil, fmt.Errorf("Apply: %w", domain.NewValidationError(domain.ErrInvalidQuantity, "movement quantity %s", m.QuantityKg))
	}

	before, err := v.Lock(ctx, tx, m.CropID)
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}

	var after domain.InventoryRecord
	switch m.Direction {
	case domain.DirectionIn:
		after = before.Receive(m.QuantityKg, m.UnitCost)
	case domain.DirectionOut:
		after, err = before.Issue(m.QuantityKg)
		if err != nil {
			return nil, fmt.Errorf("Apply: %w", err)
		}
	default:
		return nil, fmt.Errorf("Apply: unknown direction %q", m.Direction)
	}

	if err := v.store.Save(ctx, tx, &after); err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}

	logged := &domain.InventoryMovement{
		CropID:         m.CropID,
		TransactionRef: m.Ref,
		MovementDate:   m.Date,
		Direction:      m.Direction,
		QuantityKg:     m.QuantityKg,
		UnitCost:       domain.RoundCost(m.UnitCost),
		QuantityBefore: before.QuantityKg,
		QuantityAfter:  after.QuantityKg,
		AvgCostBefore:  before.AverageUnitCost,
		AvgCostAfter:   after.AverageUnitCost,
		SourceType:     m.SourceType,
		SourceID:       m.SourceID,
	}
	if err := v.store.CreateMovement(ctx, tx, logged); err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	return logged, nil
}

// Unwind reverses every movement logged under ref, newest first, and drops
// them from the movement log.
func (v *Valuation) Unwind(ctx context.Context, tx *sql.Tx, ref string) (int, error) {
	movements, err := v.store.MovementsByRef(ctx, tx, ref)
	if err != nil {
		return 0, fmt.Errorf("Unwind: %w", err)
	}

	for i := len(movements) - 1; i >= 0; i-- {
		m := movements[i]
		rec, err := v.Lock(ctx, tx, m.CropID)
		if err != nil {
			return 0, fmt.Errorf("Unwind: %w", err)
		}
		next, err := rec.Unwind(m)
		if err != nil {
			return 0, fmt.Errorf("Unwind: %s: %w", ref, err)
		}
		if err := v.store.Save(ctx, tx, &next); err != nil {
			return 0, fmt.Errorf("Unwind: %w", err)
		}
	}

	if len(movements) > 0 {
		if err := v.store.DeleteMovementsByRef(ctx, tx, ref); err != nil {
			return 0, fmt.Errorf("Unwind: %w", err)
		}
	}
	return len(movements), nil
}
