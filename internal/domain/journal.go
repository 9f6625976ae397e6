package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SourceType string

const (
	SourceTypePurchase       SourceType = "PURCHASE"
	SourceTypeSale           SourceType = "SALE"
	SourceTypePayment        SourceType = "PAYMENT"
	SourceTypeAdjustment     SourceType = "INVENTORY_ADJUSTMENT"
	SourceTypePurchaseReturn SourceType = "PURCHASE_RETURN"
	SourceTypeSaleReturn     SourceType = "SALE_RETURN"
	SourceTypeManual         SourceType = "MANUAL"
	SourceTypeExpense        SourceType = "EXPENSE"
)

const (
	RefPrefixPurchase       = "PUR-"
	RefPrefixSale           = "SAL-"
	RefPrefixPayment        = "PAY-"
	RefPrefixAdjustment     = "INV-ADJ-"
	RefPrefixPurchaseReturn = "PUR-RTN-"
	RefPrefixSaleReturn     = "SAL-RTN-"
	RefPrefixManual         = "MAN-"
	RefPrefixExpense        = "EXP-"
)

func RecordRef(prefix string, id int64) string {
	return fmt.Sprintf("%s%d", prefix, id)
}

// IsStandaloneRef reports whether a ref belongs to a journal-only event with
// no business record behind it.
func IsStandaloneRef(ref string) bool {
	return strings.HasPrefix(ref, RefPrefixManual) || strings.HasPrefix(ref, RefPrefixExpense)
}

type JournalEntry struct {
	ID              int64            `json:"entry_id"`
	TransactionRef  string           `json:"transaction_ref"`
	EntryDate       time.Time        `json:"entry_date"`
	AccountID       int64            `json:"account_id"`
	Debit           decimal.Decimal  `json:"debit"`
	Credit          decimal.Decimal  `json:"credit"`
	Description     string           `json:"description"`
	SourceType      SourceType       `json:"source_type"`
	SourceID        *int64           `json:"source_id"`
	TransactionType string           `json:"transaction_type"`
	ContactID       *int64           `json:"contact_id"`
	CropID          *int64           `json:"crop_id"`
	QuantityKg      *decimal.Decimal `json:"quantity_kg"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (e *JournalEntry) Validate() error {
	if e.TransactionRef == "" {
		return NewValidationError(nil, "journal entry requires a transaction ref")
	}
	if e.AccountID == 0 {
		return NewValidationError(nil, "journal entry %s requires an account", e.TransactionRef)
	}
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return NewValidationError(ErrInvalidAmount, "journal entry %s on account %d has a negative side", e.TransactionRef, e.AccountID)
	}
	if e.Debit.IsZero() == e.Credit.IsZero() {
		return NewValidationError(ErrInvalidAmount, "journal entry %s on account %d must carry exactly one nonzero side", e.TransactionRef, e.AccountID)
	}
	return nil
}

// Totals sums both sides of a group of entries.
func Totals(entries []JournalEntry) (debit, credit decimal.Decimal) {
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// DebitTo returns the first debit entry posted to accountID.
func DebitTo(entries []JournalEntry, accountID int64) (*JournalEntry, bool) {
	for i := range entries {
		if entries[i].AccountID == accountID && entries[i].Debit.IsPositive() {
			return &entries[i], true
		}
	}
	return nil, false
}
