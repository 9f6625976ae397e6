package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/josh-kwaku/agri-trade-ledger/internal/auth"
	"github.com/josh-kwaku/agri-trade-ledger/internal/config"
	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
)

var errIntegrity = errors.New("ledger integrity check failed")

type DBFlags struct {
	DatabaseURL string        `help:"Postgres connection string." env:"DATABASE_URL" required:""`
	Timeout     time.Duration `help:"Overall command timeout." default:"2m"`
}

func (f DBFlags) open(ctx context.Context) (*sql.DB, error) {
	return repository.NewPostgresDB(ctx, f.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		ConnMaxLifetimeS: 60,
		ConnMaxIdleTimeS: 30,
	})
}

type MigrateCmd struct {
	DBFlags
	Dir string `help:"Directory holding *.up.sql files." type:"existingdir" default:"${migrations}"`
}

func (cmd *MigrateCmd) Run(kctx *kong.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	db, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := repository.Migrate(ctx, db, cmd.Dir)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(kctx.Stdout, "schema is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(kctx.Stdout, "applied %s\n", name)
	}
	return nil
}

type SeedChartCmd struct {
	DBFlags
}

func (cmd *SeedChartCmd) Run(kctx *kong.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	chart, err := config.LoadChart()
	if err != nil {
		return err
	}
	db, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := repository.NewAccountRepository(db)
	journal := repository.NewJournalRepository(db)
	engine := ledger.NewEngine(journal, accounts, repository.NewInventoryRepository(db), repository.NewAuditRepository(db), chart)
	svc := service.NewAccountService(repository.NewDB(db, sql.LevelReadCommitted), accounts, journal, engine, chart)

	n, err := svc.SeedChart(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(kctx.Stdout, "created %d accounts\n", n)
	return nil
}

type CheckCmd struct {
	DBFlags
	JSON bool `help:"Print the full report as JSON."`
}

func (cmd *CheckCmd) Run(kctx *kong.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	chart, err := config.LoadChart()
	if err != nil {
		return err
	}
	db, err := cmd.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	checker := service.NewIntegrityChecker(repository.NewAccountRepository(db), repository.NewJournalRepository(db), chart)
	report, err := checker.Check(ctx)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, u := range report.UnbalancedRefs {
			fmt.Fprintf(kctx.Stdout, "unbalanced %s: debit %s credit %s\n", u.Ref, u.Debit, u.Credit)
		}
		for _, d := range report.Drift {
			fmt.Fprintf(kctx.Stdout, "account %d: balance %s, postings say %s\n", d.AccountID, d.Actual, d.Expected)
		}
	}

	if !report.OK() {
		return errIntegrity
	}
	fmt.Fprintln(kctx.Stdout, "ledger is consistent")
	return nil
}

type TokenCmd struct {
	Actor  string        `arg:"" help:"Operator name recorded in the audit log."`
	Secret string        `help:"JWT signing secret." env:"JWT_SECRET" required:""`
	Expiry time.Duration `help:"Token lifetime." default:"12h"`
}

func (cmd *TokenCmd) Run(kctx *kong.Context) error {
	token, err := auth.GenerateToken(cmd.Actor, cmd.Secret, cmd.Expiry)
	if err != nil {
		return err
	}
	fmt.Fprintln(kctx.Stdout, token)
	return nil
}
