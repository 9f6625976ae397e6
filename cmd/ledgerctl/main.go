package main

import (
	"github.com/alecthomas/kong"

	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
)

var version = "dev"

var cli struct {
	Version  kong.VersionFlag `help:"Show version information."`
	LogLevel string           `help:"Log level." env:"LOG_LEVEL" default:"warn"`

	Migrate   MigrateCmd   `cmd:"" help:"Apply pending schema migrations."`
	SeedChart SeedChartCmd `cmd:"" name:"seed-chart" help:"Create the default chart of accounts where missing."`
	Check     CheckCmd     `cmd:"" help:"Verify that every transaction balances and account balances match their postings."`
	Token     TokenCmd     `cmd:"" help:"Issue an operator token for the API."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Vars{
			"version":    version,
			"migrations": repository.FindMigrationsDir(),
		},
		kong.Name("ledgerctl"),
		kong.Description("Operator tooling for the agricultural trade ledger."),
		kong.UsageOnError(),
	)
	logging.Init("ledgerctl", cli.LogLevel, "development")

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
