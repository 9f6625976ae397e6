package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
)

type paymentService interface {
	AddPayment(ctx context.Context, req trading.PaymentRequest) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, id int64, req trading.PaymentRequest) (*trading.PaymentUpdate, error)
	DeletePayment(ctx context.Context, id int64) error
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentRequest struct {
	ContactID        int64           `json:"contact_id" validate:"gt=0"`
	PaymentDate      string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentType      string          `json:"payment_type" validate:"required,oneof=PAY RECEIVE"`
	PaymentAccountID int64           `json:"payment_account_id" validate:"gt=0"`
	ReferenceNumber  *string         `json:"reference_number" validate:"omitempty,max=100"`
	Notes            *string         `json:"notes"`
}

func (r paymentRequest) toService(date time.Time) trading.PaymentRequest {
	return trading.PaymentRequest{
		ContactID:        r.ContactID,
		PaymentDate:      date,
		Amount:           r.Amount,
		PaymentType:      domain.PaymentType(r.PaymentType),
		PaymentAccountID: r.PaymentAccountID,
		ReferenceNumber:  r.ReferenceNumber,
		Notes:            r.Notes,
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "payment_date", req.PaymentDate)
	if !ok {
		return
	}
	p, err := h.payments.AddPayment(r.Context(), req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%d", p.ID))
	RespondSuccess(w, http.StatusCreated, p)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	p, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, p)
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req paymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "payment_date", req.PaymentDate)
	if !ok {
		return
	}
	upd, err := h.payments.UpdatePayment(r.Context(), id, req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment update failed", "error", err, "payment_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%d", upd.Payment.ID))
	RespondSuccess(w, http.StatusOK, upd)
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.payments.DeletePayment(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("payment deletion failed", "error", err, "payment_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
