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

type saleService interface {
	AddSale(ctx context.Context, req trading.SaleRequest) (*domain.Sale, error)
	UpdateSale(ctx context.Context, id int64, req trading.SaleRequest) (*trading.SaleUpdate, error)
	DeleteSale(ctx context.Context, id int64) error
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	AddSaleReturn(ctx context.Context, req trading.SaleReturnRequest) (*domain.SaleReturn, error)
	DeleteSaleReturn(ctx context.Context, id int64) error
	GetSaleReturn(ctx context.Context, id int64) (*domain.SaleReturn, error)
}

type SaleHandler struct {
	sales saleService
}

func NewSaleHandler(sales saleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

type saleRequest struct {
	CropID           int64           `json:"crop_id" validate:"gt=0"`
	CustomerID       int64           `json:"customer_id" validate:"gt=0"`
	SaleDate         string          `json:"sale_date" validate:"omitempty,datetime=2006-01-02"`
	QuantityKg       decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	PricingUnit      string          `json:"pricing_unit" validate:"max=50"`
	UnitFactor       decimal.Decimal `json:"unit_factor" validate:"gte=0"`
	UnitPrice        decimal.Decimal `json:"unit_price" validate:"gt=0"`
	AmountReceived   decimal.Decimal `json:"amount_received"`
	PaymentAccountID *int64          `json:"payment_account_id" validate:"omitempty,gt=0"`
	InvoiceNumber    *string         `json:"invoice_number" validate:"omitempty,max=100"`
	Notes            *string         `json:"notes"`
}

func (r saleRequest) toService(date time.Time) trading.SaleRequest {
	return trading.SaleRequest{
		CropID:           r.CropID,
		CustomerID:       r.CustomerID,
		SaleDate:         date,
		QuantityKg:       r.QuantityKg,
		PricingUnit:      r.PricingUnit,
		UnitFactor:       r.UnitFactor,
		UnitPrice:        r.UnitPrice,
		AmountReceived:   r.AmountReceived,
		PaymentAccountID: r.PaymentAccountID,
		InvoiceNumber:    r.InvoiceNumber,
		Notes:            r.Notes,
	}
}

type saleReturnRequest struct {
	ReturnDate   string          `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	QuantityKg   decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	RefundAmount decimal.Decimal `json:"refund_amount" validate:"gte=0"`
	Reason       *string         `json:"reason"`
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "sale_date", req.SaleDate)
	if !ok {
		return
	}
	s, err := h.sales.AddSale(r.Context(), req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("sale creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/sales/%d", s.ID))
	RespondSuccess(w, http.StatusCreated, s)
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	s, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, s)
}

func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req saleRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "sale_date", req.SaleDate)
	if !ok {
		return
	}
	upd, err := h.sales.UpdateSale(r.Context(), id, req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("sale update failed", "error", err, "sale_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/sales/%d", upd.Sale.ID))
	RespondSuccess(w, http.StatusOK, upd)
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.sales.DeleteSale(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("sale deletion failed", "error", err, "sale_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaleHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req saleReturnRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "return_date", req.ReturnDate)
	if !ok {
		return
	}
	ret, err := h.sales.AddSaleReturn(r.Context(), trading.SaleReturnRequest{
		SaleID:       id,
		ReturnDate:   date,
		QuantityKg:   req.QuantityKg,
		RefundAmount: req.RefundAmount,
		Reason:       req.Reason,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("sale return failed", "error", err, "sale_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/sale-returns/%d", ret.ID))
	RespondSuccess(w, http.StatusCreated, ret)
}

func (h *SaleHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ret, err := h.sales.GetSaleReturn(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, ret)
}

func (h *SaleHandler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.sales.DeleteSaleReturn(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("sale return deletion failed", "error", err, "return_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
