package service

import (
	"context"
	"log/slog"
	"time"
)

type cacheCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

type integrityRunner interface {
	Check(ctx context.Context) (*IntegrityReport, error)
}

// MaintenanceWorker runs the periodic housekeeping of the API process:
// expiring idempotency entries and re-checking ledger integrity.
type MaintenanceWorker struct {
	cache    cacheCleaner
	checker  integrityRunner
	logger   *slog.Logger
	interval time.Duration
}

func NewMaintenanceWorker(cache cacheCleaner, checker integrityRunner, logger *slog.Logger, interval time.Duration) *MaintenanceWorker {
	return &MaintenanceWorker{
		cache:    cache,
		checker:  checker,
		logger:   logger,
		interval: interval,
	}
}

func (m *MaintenanceWorker) Start(ctx context.Context) {
	m.logger.Info("maintenance worker started", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("maintenance worker stopped")
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *MaintenanceWorker) runOnce(ctx context.Context) {
	n, err := m.cache.CleanExpired(ctx)
	if err != nil {
		m.logger.Error("failed to clean idempotency cache", "error", err)
	} else if n > 0 {
		m.logger.Info("expired idempotency entries removed", "count", n)
	}

	if m.checker == nil {
		return
	}
	// Check logs its own findings.
	if _, err := m.checker.Check(ctx); err != nil {
		m.logger.Error("integrity check failed to run", "error", err)
	}
}
