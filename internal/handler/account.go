package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service"
)

type accountService interface {
	CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, id int64) error
	ListAccounts(ctx context.Context, includeInactive bool) ([]domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	ID                 int64           `json:"account_id" validate:"gte=0"`
	Name               string          `json:"account_name" validate:"required,max=100"`
	Type               string          `json:"account_type" validate:"required"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceDate string          `json:"opening_balance_date" validate:"omitempty,datetime=2006-01-02"`
	AccountNumber      *string         `json:"account_number" validate:"omitempty,max=50"`
	BankName           *string         `json:"bank_name" validate:"omitempty,max=100"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if !domain.AccountType(req.Type).IsValid() {
		RespondValidationError(w, []FieldError{{Field: "account_type", Message: "unknown account type"}})
		return
	}

	date, ok := requestDate(w, "opening_balance_date", req.OpeningBalanceDate)
	if !ok {
		return
	}
	a, err := h.accounts.CreateAccount(r.Context(), service.CreateAccountRequest{
		ID:                 req.ID,
		Name:               req.Name,
		Type:               domain.AccountType(req.Type),
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceDate: date,
		AccountNumber:      req.AccountNumber,
		BankName:           req.BankName,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/accounts/%d", a.ID))
	RespondSuccess(w, http.StatusCreated, a)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context(), includeInactive(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	a, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, a)
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.accounts.DeactivateAccount(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("account deactivation failed", "error", err, "account_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
