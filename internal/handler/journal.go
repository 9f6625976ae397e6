package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
)

type journalService interface {
	AddManualEntry(ctx context.Context, req trading.ManualEntryRequest) (*trading.Posting, error)
	AddExpense(ctx context.Context, req trading.ExpenseRequest) (*trading.Posting, error)
	DeleteJournalEntry(ctx context.Context, ref string) error
	EntriesFor(ctx context.Context, ref string) ([]domain.JournalEntry, error)
}

type integrityChecker interface {
	Check(ctx context.Context) (*service.IntegrityReport, error)
}

type JournalHandler struct {
	journal   journalService
	integrity integrityChecker
}

func NewJournalHandler(journal journalService, integrity integrityChecker) *JournalHandler {
	return &JournalHandler{journal: journal, integrity: integrity}
}

type manualEntryRequest struct {
	DebitAccountID  int64           `json:"debit_account_id" validate:"gt=0"`
	CreditAccountID int64           `json:"credit_account_id" validate:"gt=0,nefield=DebitAccountID"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	EntryDate       string          `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	Description     string          `json:"description" validate:"required,max=500"`
}

type expenseRequest struct {
	ExpenseAccountID int64           `json:"expense_account_id" validate:"gt=0"`
	PaymentAccountID int64           `json:"payment_account_id" validate:"gt=0"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	ExpenseDate      string          `json:"expense_date" validate:"omitempty,datetime=2006-01-02"`
	Description      string          `json:"description" validate:"required,max=500"`
	ContactID        *int64          `json:"contact_id" validate:"omitempty,gt=0"`
}

func (h *JournalHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req manualEntryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "entry_date", req.EntryDate)
	if !ok {
		return
	}
	posting, err := h.journal.AddManualEntry(r.Context(), trading.ManualEntryRequest{
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		Amount:          req.Amount,
		EntryDate:       date,
		Description:     req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("manual entry failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/journal/%s", posting.Ref))
	RespondSuccess(w, http.StatusCreated, posting)
}

func (h *JournalHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "expense_date", req.ExpenseDate)
	if !ok {
		return
	}
	posting, err := h.journal.AddExpense(r.Context(), trading.ExpenseRequest{
		ExpenseAccountID: req.ExpenseAccountID,
		PaymentAccountID: req.PaymentAccountID,
		Amount:           req.Amount,
		ExpenseDate:      date,
		Description:      req.Description,
		ContactID:        req.ContactID,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("expense failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/journal/%s", posting.Ref))
	RespondSuccess(w, http.StatusCreated, posting)
}

func (h *JournalHandler) Entries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.EntriesFor(r.Context(), r.PathValue("ref"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, entries)
}

func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if err := h.journal.DeleteJournalEntry(r.Context(), ref); err != nil {
		logging.FromContext(r.Context()).Warn("journal deletion failed", "error", err, "transaction_ref", ref)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JournalHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	report, err := h.integrity.Check(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"ok":     report.OK(),
		"report": report,
	})
}
