package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/handler"
	"github.com/josh-kwaku/agri-trade-ledger/internal/middleware"
	"github.com/josh-kwaku/agri-trade-ledger/internal/repository"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
)

type app struct {
	health      *handler.HealthHandler
	purchases   *handler.PurchaseHandler
	sales       *handler.SaleHandler
	payments    *handler.PaymentHandler
	inventory   *handler.InventoryHandler
	journal     *handler.JournalHandler
	accounts    *handler.AccountHandler
	contacts    *handler.ContactHandler
	crops       *handler.CropHandler
	idempotency *repository.IdempotencyRepository
	checker     *service.IntegrityChecker
}

func newApp(db *sql.DB, isolation sql.IsolationLevel, chart domain.Chart, version string) *app {
	store := repository.NewDB(db, isolation)

	accountRepo := repository.NewAccountRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	contactRepo := repository.NewContactRepository(db)
	cropRepo := repository.NewCropRepository(db)

	engine := ledger.NewEngine(journalRepo, accountRepo, inventoryRepo, repository.NewAuditRepository(db), chart)

	trades := trading.NewService(
		store,
		engine,
		repository.NewPurchaseRepository(db),
		repository.NewSaleRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewAdjustmentRepository(db),
		repository.NewReturnRepository(db),
		accountRepo,
		contactRepo,
		cropRepo,
		journalRepo,
	)
	checker := service.NewIntegrityChecker(accountRepo, journalRepo, chart)
	crops := service.NewCropService(store, cropRepo, inventoryRepo, engine)

	return &app{
		health:      handler.NewHealthHandler(db, version),
		purchases:   handler.NewPurchaseHandler(trades),
		sales:       handler.NewSaleHandler(trades),
		payments:    handler.NewPaymentHandler(trades),
		inventory:   handler.NewInventoryHandler(trades, crops),
		journal:     handler.NewJournalHandler(trades, checker),
		accounts:    handler.NewAccountHandler(service.NewAccountService(store, accountRepo, journalRepo, engine, chart)),
		contacts:    handler.NewContactHandler(service.NewContactService(store, contactRepo, engine)),
		crops:       handler.NewCropHandler(crops),
		idempotency: repository.NewIdempotencyRepository(db),
		checker:     checker,
	}
}

// routes serves health checks unauthenticated and everything under /api/v1
// behind JWT auth and idempotency.
func (a *app) routes(jwtSecret string, idempotencyTTL time.Duration) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/v1/purchases", a.purchases.Create)
	api.HandleFunc("GET /api/v1/purchases/{id}", a.purchases.Get)
	api.HandleFunc("PUT /api/v1/purchases/{id}", a.purchases.Update)
	api.HandleFunc("DELETE /api/v1/purchases/{id}", a.purchases.Delete)
	api.HandleFunc("POST /api/v1/purchases/{id}/returns", a.purchases.CreateReturn)
	api.HandleFunc("GET /api/v1/purchase-returns/{id}", a.purchases.GetReturn)
	api.HandleFunc("DELETE /api/v1/purchase-returns/{id}", a.purchases.DeleteReturn)

	api.HandleFunc("POST /api/v1/sales", a.sales.Create)
	api.HandleFunc("GET /api/v1/sales/{id}", a.sales.Get)
	api.HandleFunc("PUT /api/v1/sales/{id}", a.sales.Update)
	api.HandleFunc("DELETE /api/v1/sales/{id}", a.sales.Delete)
	api.HandleFunc("POST /api/v1/sales/{id}/returns", a.sales.CreateReturn)
	api.HandleFunc("GET /api/v1/sale-returns/{id}", a.sales.GetReturn)
	api.HandleFunc("DELETE /api/v1/sale-returns/{id}", a.sales.DeleteReturn)

	api.HandleFunc("POST /api/v1/payments", a.payments.Create)
	api.HandleFunc("GET /api/v1/payments/{id}", a.payments.Get)
	api.HandleFunc("PUT /api/v1/payments/{id}", a.payments.Update)
	api.HandleFunc("DELETE /api/v1/payments/{id}", a.payments.Delete)

	api.HandleFunc("POST /api/v1/inventory/adjustments", a.inventory.CreateAdjustment)
	api.HandleFunc("GET /api/v1/inventory/adjustments/{id}", a.inventory.GetAdjustment)
	api.HandleFunc("DELETE /api/v1/inventory/adjustments/{id}", a.inventory.DeleteAdjustment)
	api.HandleFunc("GET /api/v1/inventory/{cropId}", a.inventory.Stock)

	api.HandleFunc("POST /api/v1/journal/manual", a.journal.CreateManual)
	api.HandleFunc("POST /api/v1/expenses", a.journal.CreateExpense)
	api.HandleFunc("GET /api/v1/journal/{ref}", a.journal.Entries)
	api.HandleFunc("DELETE /api/v1/journal/{ref}", a.journal.Delete)
	api.HandleFunc("GET /api/v1/ledger/integrity", a.journal.Integrity)

	api.HandleFunc("POST /api/v1/accounts", a.accounts.Create)
	api.HandleFunc("GET /api/v1/accounts", a.accounts.List)
	api.HandleFunc("GET /api/v1/accounts/{id}", a.accounts.Get)
	api.HandleFunc("DELETE /api/v1/accounts/{id}", a.accounts.Deactivate)

	api.HandleFunc("POST /api/v1/contacts", a.contacts.Create)
	api.HandleFunc("GET /api/v1/contacts", a.contacts.List)
	api.HandleFunc("GET /api/v1/contacts/{id}", a.contacts.Get)
	api.HandleFunc("DELETE /api/v1/contacts/{id}", a.contacts.Deactivate)

	api.HandleFunc("POST /api/v1/crops", a.crops.Create)
	api.HandleFunc("GET /api/v1/crops", a.crops.List)
	api.HandleFunc("GET /api/v1/crops/{id}", a.crops.Get)
	api.HandleFunc("DELETE /api/v1/crops/{id}", a.crops.Deactivate)

	protected := middleware.Auth(jwtSecret)(
		middleware.Logging(
			middleware.Idempotency(a.idempotency, idempotencyTTL)(api),
		),
	)

	root := http.NewServeMux()
	root.HandleFunc("GET /health/live", a.health.Liveness)
	root.HandleFunc("GET /health/ready", a.health.Readiness)
	root.Handle("/api/", protected)

	return middleware.Recovery(middleware.Tracing(root))
}
