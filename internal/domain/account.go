package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeHeader             AccountType = "HEADER"
	AccountTypeAsset              AccountType = "ASSET"
	AccountTypeCurrentAsset       AccountType = "CURRENT_ASSET"
	AccountTypeCash               AccountType = "CASH"
	AccountTypeBank               AccountType = "BANK"
	AccountTypeAccountsReceivable AccountType = "ACCOUNTS_RECEIVABLE"
	AccountTypeLiability          AccountType = "LIABILITY"
	AccountTypeAccountsPayable    AccountType = "ACCOUNTS_PAYABLE"
	AccountTypeEquity             AccountType = "EQUITY"
	AccountTypeRevenue            AccountType = "REVENUE"
	AccountTypeExpense            AccountType = "EXPENSE"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeHeader, AccountTypeAsset, AccountTypeCurrentAsset, AccountTypeCash,
		AccountTypeBank, AccountTypeAccountsReceivable, AccountTypeLiability,
		AccountTypeAccountsPayable, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// IsDebitNormal reports whether balances of this type grow with debits.
func (t AccountType) IsDebitNormal() bool {
	switch t {
	case AccountTypeAsset, AccountTypeCurrentAsset, AccountTypeCash, AccountTypeBank,
		AccountTypeAccountsReceivable, AccountTypeExpense:
		return true
	}
	return false
}

func (t AccountType) IsSettlement() bool {
	return t == AccountTypeCash || t == AccountTypeBank
}

type Account struct {
	ID                 int64           `json:"account_id"`
	Name               string          `json:"account_name"`
	Type               AccountType     `json:"account_type"`
	AccountNumber      *string         `json:"account_number"`
	BankName           *string         `json:"bank_name"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceDate time.Time       `json:"opening_balance_date"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
}
