package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID               int64            `json:"purchase_id"`
	CropID           int64            `json:"crop_id"`
	SupplierID       int64            `json:"supplier_id"`
	PurchaseDate     time.Time        `json:"purchase_date"`
	QuantityKg       decimal.Decimal  `json:"quantity_kg"`
	PricingUnit      string           `json:"pricing_unit"`
	UnitFactor       decimal.Decimal  `json:"unit_factor"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	AmountPaid       decimal.Decimal  `json:"amount_paid"`
	PaymentStatus    SettlementStatus `json:"payment_status"`
	PaymentAccountID *int64           `json:"payment_account_id"`
	InvoiceNumber    *string          `json:"invoice_number"`
	Notes            *string          `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (p *Purchase) Ref() string {
	return RecordRef(RefPrefixPurchase, p.ID)
}

// UnitCost is the per-kg cost the purchase brings into stock.
func (p *Purchase) UnitCost() decimal.Decimal {
	return RoundCost(p.TotalAmount.Div(p.QuantityKg))
}
