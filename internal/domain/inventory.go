package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type InventoryRecord struct {
	CropID          int64           `json:"crop_id"`
	QuantityKg      decimal.Decimal `json:"current_stock_kg"`
	AverageUnitCost decimal.Decimal `json:"average_cost_per_kg"`
	LastUpdated     time.Time       `json:"last_updated"`
}

func (r InventoryRecord) Value() decimal.Decimal {
	return RoundMoney(r.QuantityKg.Mul(r.AverageUnitCost))
}

// Receive blends an inbound movement into the running average.
func (r InventoryRecord) Receive(qty, unitCost decimal.Decimal) InventoryRecord {
	next := r
	next.QuantityKg = r.QuantityKg.Add(qty)
	if !next.QuantityKg.IsPositive() {
		return next
	}
	value := r.QuantityKg.Mul(r.AverageUnitCost).Add(qty.Mul(unitCost))
	next.AverageUnitCost = RoundCost(value.Div(next.QuantityKg))
	return next
}

// Issue removes stock at the current average; the average is unchanged.
func (r InventoryRecord) Issue(qty decimal.Decimal) (InventoryRecord, error) {
	if qty.GreaterThan(r.QuantityKg) {
		return r, NewValidationError(ErrInsufficientStock,
			"crop %d has %s kg in stock, %s kg requested", r.CropID, r.QuantityKg, qty)
	}
	next := r
	next.QuantityKg = r.QuantityKg.Sub(qty)
	return next, nil
}

// Unwind undoes a logged movement using the unit cost recorded with it. When
// nothing has touched the item since, the pre-movement snapshot is restored
// exactly.
func (r InventoryRecord) Unwind(m InventoryMovement) (InventoryRecord, error) {
	if r.QuantityKg.Equal(m.QuantityAfter) && r.AverageUnitCost.Equal(m.AvgCostAfter) {
		next := r
		next.QuantityKg = m.QuantityBefore
		next.AverageUnitCost = m.AvgCostBefore
		return next, nil
	}

	switch m.Direction {
	case DirectionOut:
		return r.Receive(m.QuantityKg, m.UnitCost), nil
	case DirectionIn:
		next, err := r.Issue(m.QuantityKg)
		if err != nil {
			return r, err
		}
		if !next.QuantityKg.IsPositive() {
			return next, nil
		}
		value := r.QuantityKg.Mul(r.AverageUnitCost).Sub(m.QuantityKg.Mul(m.UnitCost))
		avg := RoundCost(value.Div(next.QuantityKg))
		if avg.IsNegative() {
			avg = decimal.Zero
		}
		next.AverageUnitCost = avg
		return next, nil
	}
	return r, fmt.Errorf("Unwind: unknown direction %q", m.Direction)
}

type InventoryMovement struct {
	ID             int64
	CropID         int64
	TransactionRef string
	MovementDate   time.Time
	Direction      Direction
	QuantityKg     decimal.Decimal
	UnitCost       decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	AvgCostBefore  decimal.Decimal
	AvgCostAfter   decimal.Decimal
	SourceType     SourceType
	SourceID       *int64
	CreatedAt      time.Time
}
