package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID               int64            `json:"sale_id"`
	CropID           int64            `json:"crop_id"`
	CustomerID       int64            `json:"customer_id"`
	SaleDate         time.Time        `json:"sale_date"`
	QuantityKg       decimal.Decimal  `json:"quantity_kg"`
	PricingUnit      string           `json:"pricing_unit"`
	UnitFactor       decimal.Decimal  `json:"unit_factor"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	AmountReceived   decimal.Decimal  `json:"amount_received"`
	PaymentStatus    SettlementStatus `json:"payment_status"`
	PaymentAccountID *int64           `json:"payment_account_id"`
	InvoiceNumber    *string          `json:"invoice_number"`
	Notes            *string          `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (s *Sale) Ref() string {
	return RecordRef(RefPrefixSale, s.ID)
}
