package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseReturn struct {
	ID                 int64           `json:"return_id"`
	OriginalPurchaseID int64           `json:"original_purchase_id"`
	ReturnDate         time.Time       `json:"return_date"`
	QuantityKg         decimal.Decimal `json:"quantity_kg"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	ReturnedCost       decimal.Decimal `json:"returned_cost"`
	Reason             *string         `json:"reason"`
	CreatedAt          time.Time       `json:"created_at"`
}

func (r *PurchaseReturn) Ref() string {
	return RecordRef(RefPrefixPurchaseReturn, r.ID)
}

type SaleReturn struct {
	ID             int64           `json:"return_id"`
	OriginalSaleID int64           `json:"original_sale_id"`
	ReturnDate     time.Time       `json:"return_date"`
	QuantityKg     decimal.Decimal `json:"quantity_kg"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	CostRestored   decimal.Decimal `json:"cost_restored"`
	Reason         *string         `json:"reason"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (r *SaleReturn) Ref() string {
	return RecordRef(RefPrefixSaleReturn, r.ID)
}

// ReturnTotals is what has already been returned against one original
// record. Amount is the money credited back to the contact and Cost the
// inventory cost moved by the returns.
type ReturnTotals struct {
	QuantityKg decimal.Decimal
	Amount     decimal.Decimal
	Cost       decimal.Decimal
	Count      int
}
