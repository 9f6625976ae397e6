package config

import (
	"database/sql"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBIsolation        string `env:"DB_ISOLATION" envDefault:"read_committed"`

	IdempotencyTTL      time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	MaintenanceInterval time.Duration `env:"MAINTENANCE_INTERVAL" envDefault:"15m"`

	Chart ChartConfig `envPrefix:"CHART_"`
}

// ChartConfig maps each chart role to the account id the ledger posts it to.
type ChartConfig struct {
	Cash               int64 `env:"CASH_ACCOUNT_ID" envDefault:"10101"`
	Bank               int64 `env:"BANK_ACCOUNT_ID" envDefault:"10102"`
	Inventory          int64 `env:"INVENTORY_ACCOUNT_ID" envDefault:"10103"`
	AccountsReceivable int64 `env:"ACCOUNTS_RECEIVABLE_ACCOUNT_ID" envDefault:"10104"`
	AccountsPayable    int64 `env:"ACCOUNTS_PAYABLE_ACCOUNT_ID" envDefault:"20101"`
	SalesRevenue       int64 `env:"SALES_REVENUE_ACCOUNT_ID" envDefault:"40101"`
	SalesReturns       int64 `env:"SALES_RETURNS_ACCOUNT_ID" envDefault:"40102"`
	InventoryGain      int64 `env:"INVENTORY_GAIN_ACCOUNT_ID" envDefault:"40105"`
	CostOfGoodsSold    int64 `env:"COGS_ACCOUNT_ID" envDefault:"50101"`
	InventoryLoss      int64 `env:"INVENTORY_LOSS_ACCOUNT_ID" envDefault:"50108"`
}

func (c ChartConfig) Chart() domain.Chart {
	return domain.Chart{
		Cash:               c.Cash,
		Bank:               c.Bank,
		Inventory:          c.Inventory,
		AccountsReceivable: c.AccountsReceivable,
		AccountsPayable:    c.AccountsPayable,
		SalesRevenue:       c.SalesRevenue,
		SalesReturns:       c.SalesReturns,
		InventoryGain:      c.InventoryGain,
		CostOfGoodsSold:    c.CostOfGoodsSold,
		InventoryLoss:      c.InventoryLoss,
	}
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if _, err := cfg.TxIsolation(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Chart.Chart().Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoadChart reads only the chart mapping, for tools that run without the
// full service configuration.
func LoadChart() (domain.Chart, error) {
	cc, err := env.ParseAsWithOptions[ChartConfig](env.Options{Prefix: "CHART_"})
	if err != nil {
		return domain.Chart{}, fmt.Errorf("config.LoadChart: %w", err)
	}
	chart := cc.Chart()
	if err := chart.Validate(); err != nil {
		return domain.Chart{}, fmt.Errorf("config.LoadChart: %w", err)
	}
	return chart, nil
}

func (c *Config) TxIsolation() (sql.IsolationLevel, error) {
	switch c.DBIsolation {
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return sql.LevelDefault, fmt.Errorf("unsupported DB_ISOLATION %q", c.DBIsolation)
}
