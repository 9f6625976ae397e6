package domain

import "github.com/shopspring/decimal"

type SettlementStatus string

const (
	SettlementPending SettlementStatus = "PENDING"
	SettlementPartial SettlementStatus = "PARTIAL"
	SettlementPaid    SettlementStatus = "PAID"
)

func SettlementStatusFor(settled, total decimal.Decimal) SettlementStatus {
	switch {
	case !settled.IsPositive():
		return SettlementPending
	case settled.GreaterThanOrEqual(total):
		return SettlementPaid
	default:
		return SettlementPartial
	}
}

// SettledAmount clamps the requested settlement to the total. Without a
// settlement account nothing is settled.
func SettledAmount(requested, total decimal.Decimal, accountID *int64) decimal.Decimal {
	if accountID == nil || !requested.IsPositive() {
		return decimal.Zero
	}
	return RoundMoney(MinDecimal(requested, total))
}

// LineTotal prices a kg quantity in a unit holding factor kg.
func LineTotal(quantityKg, factor, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(quantityKg.Div(factor).Mul(unitPrice))
}
