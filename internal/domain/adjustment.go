package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdjustmentType string

const (
	AdjustmentDamage   AdjustmentType = "DAMAGE"
	AdjustmentShortage AdjustmentType = "SHORTAGE"
	AdjustmentSurplus  AdjustmentType = "SURPLUS"
)

func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentDamage, AdjustmentShortage, AdjustmentSurplus:
		return true
	}
	return false
}

func (t AdjustmentType) IsInbound() bool {
	return t == AdjustmentSurplus
}

type InventoryAdjustment struct {
	ID             int64           `json:"adjustment_id"`
	CropID         int64           `json:"crop_id"`
	AdjustmentDate time.Time       `json:"adjustment_date"`
	AdjustmentType AdjustmentType  `json:"adjustment_type"`
	QuantityKg     decimal.Decimal `json:"quantity_kg"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Reason         *string         `json:"reason"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (a *InventoryAdjustment) Ref() string {
	return RecordRef(RefPrefixAdjustment, a.ID)
}
