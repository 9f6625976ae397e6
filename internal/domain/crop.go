package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingUnit is a named trading unit with the kg-per-unit factors a crop
// may be priced in, e.g. a "bag" of 50 or 100 kg.
type PricingUnit struct {
	Name    string            `json:"name"`
	Factors []decimal.Decimal `json:"factors"`
}

type Crop struct {
	ID           int64         `json:"crop_id"`
	Name         string        `json:"crop_name"`
	Category     *string       `json:"category"`
	PricingUnits []PricingUnit `json:"allowed_pricing_units"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
}

func ValidatePricingUnits(units []PricingUnit) error {
	seen := make(map[string]struct{}, len(units))
	for i, u := range units {
		if u.Name == "" {
			return NewValidationError(ErrInvalidPricingUnit, "pricing unit %d has no name", i)
		}
		if _, ok := seen[u.Name]; ok {
			return NewValidationError(ErrInvalidPricingUnit, "pricing unit %q listed twice", u.Name)
		}
		seen[u.Name] = struct{}{}
		if len(u.Factors) == 0 {
			return NewValidationError(ErrInvalidPricingUnit, "pricing unit %q has no conversion factors", u.Name)
		}
		for _, f := range u.Factors {
			if !f.IsPositive() {
				return NewValidationError(ErrInvalidPricingUnit, "pricing unit %q has non-positive factor %s", u.Name, f)
			}
		}
	}
	return nil
}

// ResolveFactor returns the kg-per-unit factor for a priced quantity. An
// empty unit prices per kg.
func (c *Crop) ResolveFactor(unit string, factor decimal.Decimal) (decimal.Decimal, error) {
	if unit == "" {
		return decimal.NewFromInt(1), nil
	}
	for _, u := range c.PricingUnits {
		if u.Name != unit {
			continue
		}
		if factor.IsZero() {
			return u.Factors[0], nil
		}
		for _, f := range u.Factors {
			if f.Equal(factor) {
				return f, nil
			}
		}
		return decimal.Zero, NewValidationError(ErrInvalidPricingUnit,
			"factor %s is not allowed for unit %q of %s", factor, unit, c.Name)
	}
	return decimal.Zero, NewValidationError(ErrInvalidPricingUnit, "unit %q is not allowed for %s", unit, c.Name)
}
