package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypePay     PaymentType = "PAY"
	PaymentTypeReceive PaymentType = "RECEIVE"
)

func (t PaymentType) IsValid() bool {
	return t == PaymentTypePay || t == PaymentTypeReceive
}

type Payment struct {
	ID               int64           `json:"payment_id"`
	ContactID        int64           `json:"contact_id"`
	PaymentDate      time.Time       `json:"payment_date"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentType      PaymentType     `json:"payment_type"`
	PaymentAccountID int64           `json:"payment_account_id"`
	ReferenceNumber  *string         `json:"reference_number"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (p *Payment) Ref() string {
	return RecordRef(RefPrefixPayment, p.ID)
}
