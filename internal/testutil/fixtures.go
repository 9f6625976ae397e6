package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

// SeedChart inserts the default chart of accounts with zero balances and
// returns it.
func SeedChart(t *testing.T, db *sql.DB) domain.Chart {
	t.Helper()

	chart := domain.DefaultChart()
	for _, a := range chart.Accounts() {
		SeedAccount(t, db, a.ID, a.Name, a.Type, "0")
	}
	return chart
}

func SeedAccount(t *testing.T, db *sql.DB, id int64, name string, accountType domain.AccountType, opening string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO financial_accounts (account_id, account_name, account_type, opening_balance, current_balance)
		 VALUES ($1, $2, $3, $4, $4)`,
		id, name, accountType, opening,
	)
	if err != nil {
		t.Fatalf("seed account %d: %v", id, err)
	}
}

func SeedContact(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO contacts (name, is_supplier, is_customer) VALUES ($1, TRUE, TRUE)
		 RETURNING contact_id`,
		name,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed contact %s: %v", name, err)
	}
	return id
}

func SeedCrop(t *testing.T, db *sql.DB, name string, units ...domain.PricingUnit) int64 {
	t.Helper()

	if units == nil {
		units = []domain.PricingUnit{}
	}
	raw, err := json.Marshal(units)
	if err != nil {
		t.Fatalf("marshal pricing units: %v", err)
	}

	var id int64
	err = db.QueryRow(
		`INSERT INTO crops (crop_name, allowed_pricing_units) VALUES ($1, $2) RETURNING crop_id`,
		name, string(raw),
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed crop %s: %v", name, err)
	}
	return id
}

// SeedStock sets a crop's stock directly, bypassing the ledger.
func SeedStock(t *testing.T, db *sql.DB, cropID int64, quantityKg, avgCost string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO inventory (crop_id, current_stock_kg, average_cost_per_kg) VALUES ($1, $2, $3)
		 ON CONFLICT (crop_id) DO UPDATE SET current_stock_kg = $2, average_cost_per_kg = $3`,
		cropID, quantityKg, avgCost,
	)
	if err != nil {
		t.Fatalf("seed stock for crop %d: %v", cropID, err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID int64) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT current_balance FROM financial_accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance: %v", err)
	}
	return balance
}

// GetStock returns a crop's stock quantity and average cost, zero when the
// crop has never moved.
func GetStock(t *testing.T, db *sql.DB, cropID int64) (decimal.Decimal, decimal.Decimal) {
	t.Helper()

	var qty, avg decimal.Decimal
	err := db.QueryRow(
		`SELECT current_stock_kg, average_cost_per_kg FROM inventory WHERE crop_id = $1`, cropID,
	).Scan(&qty, &avg)
	if err == sql.ErrNoRows {
		return decimal.Zero, decimal.Zero
	}
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	return qty, avg
}

func CountLedgerEntries(t *testing.T, db *sql.DB, ref string) int {
	t.Helper()
	return count(t, db, `SELECT COUNT(*) FROM general_ledger WHERE transaction_ref = $1`, ref)
}

func CountMovements(t *testing.T, db *sql.DB, ref string) int {
	t.Helper()
	return count(t, db, `SELECT COUNT(*) FROM inventory_movements WHERE transaction_ref = $1`, ref)
}

func CountAuditRows(t *testing.T, db *sql.DB, table string, op domain.AuditOperation) int {
	t.Helper()
	return count(t, db, `SELECT COUNT(*) FROM audit_log WHERE table_name = $1 AND operation = $2`, table, op)
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	return count(t, db, `SELECT COUNT(*) FROM `+table)
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
