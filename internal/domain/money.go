package domain

import "github.com/shopspring/decimal"

const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 3
	PricePlaces    int32 = 4
	CostPlaces     int32 = 10
)

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PricePlaces)
}

// RoundCost rounds per-kg costs to the scale of the cost columns so values
// survive a database round trip unchanged.
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostPlaces)
}

func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
