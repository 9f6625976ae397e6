package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Chart maps the accounts the coordinators post to by role.
type Chart struct {
	Cash               int64
	Bank               int64
	Inventory          int64
	AccountsReceivable int64
	AccountsPayable    int64
	SalesRevenue       int64
	SalesReturns       int64
	InventoryGain      int64
	CostOfGoodsSold    int64
	InventoryLoss      int64
}

func DefaultChart() Chart {
	return Chart{
		Cash:               10101,
		Bank:               10102,
		Inventory:          10103,
		AccountsReceivable: 10104,
		AccountsPayable:    20101,
		SalesRevenue:       40101,
		SalesReturns:       40102,
		InventoryGain:      40105,
		CostOfGoodsSold:    50101,
		InventoryLoss:      50108,
	}
}

func (c Chart) Validate() error {
	seen := make(map[int64]string)
	for role, id := range c.roles() {
		if id <= 0 {
			return fmt.Errorf("Chart.Validate: %s account id must be positive", role)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("Chart.Validate: %s and %s share account %d", role, other, id)
		}
		seen[id] = role
	}
	return nil
}

// RoleOf names the chart role an account fills, if any.
func (c Chart) RoleOf(id int64) (string, bool) {
	for role, roleID := range c.roles() {
		if roleID == id {
			return role, true
		}
	}
	return "", false
}

func (c Chart) roles() map[string]int64 {
	return map[string]int64{
		"cash":                c.Cash,
		"bank":                c.Bank,
		"inventory":           c.Inventory,
		"accounts receivable": c.AccountsReceivable,
		"accounts payable":    c.AccountsPayable,
		"sales revenue":       c.SalesRevenue,
		"sales returns":       c.SalesReturns,
		"inventory gain":      c.InventoryGain,
		"cost of goods sold":  c.CostOfGoodsSold,
		"inventory loss":      c.InventoryLoss,
	}
}

// IsDebitNormal resolves the natural side of an account. The sales returns
// contra-revenue account is booked under REVENUE but grows with debits.
func (c Chart) IsDebitNormal(a *Account) bool {
	if a.ID == c.SalesReturns {
		return true
	}
	return a.Type.IsDebitNormal()
}

// BalanceDelta is the signed change a posting makes to an account's
// natural-side balance.
func (c Chart) BalanceDelta(a *Account, debit, credit decimal.Decimal) decimal.Decimal {
	if c.IsDebitNormal(a) {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Accounts returns the chart's own accounts, used to seed a fresh ledger.
func (c Chart) Accounts() []Account {
	return []Account{
		{ID: c.Cash, Name: "Cash in Hand", Type: AccountTypeCash},
		{ID: c.Bank, Name: "Bank Account", Type: AccountTypeBank},
		{ID: c.Inventory, Name: "Inventory", Type: AccountTypeCurrentAsset},
		{ID: c.AccountsReceivable, Name: "Accounts Receivable", Type: AccountTypeAccountsReceivable},
		{ID: c.AccountsPayable, Name: "Accounts Payable", Type: AccountTypeAccountsPayable},
		{ID: c.SalesRevenue, Name: "Sales Revenue", Type: AccountTypeRevenue},
		{ID: c.SalesReturns, Name: "Sales Returns", Type: AccountTypeRevenue},
		{ID: c.InventoryGain, Name: "Inventory Gain", Type: AccountTypeRevenue},
		{ID: c.CostOfGoodsSold, Name: "Cost of Goods Sold", Type: AccountTypeExpense},
		{ID: c.InventoryLoss, Name: "Inventory Loss", Type: AccountTypeExpense},
	}
}
