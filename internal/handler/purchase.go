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

type purchaseService interface {
	AddPurchase(ctx context.Context, req trading.PurchaseRequest) (*domain.Purchase, error)
	UpdatePurchase(ctx context.Context, id int64, req trading.PurchaseRequest) (*trading.PurchaseUpdate, error)
	DeletePurchase(ctx context.Context, id int64) error
	GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error)
	AddPurchaseReturn(ctx context.Context, req trading.PurchaseReturnRequest) (*domain.PurchaseReturn, error)
	DeletePurchaseReturn(ctx context.Context, id int64) error
	GetPurchaseReturn(ctx context.Context, id int64) (*domain.PurchaseReturn, error)
}

type PurchaseHandler struct {
	purchases purchaseService
}

func NewPurchaseHandler(purchases purchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

type purchaseRequest struct {
	CropID           int64           `json:"crop_id" validate:"gt=0"`
	SupplierID       int64           `json:"supplier_id" validate:"gt=0"`
	PurchaseDate     string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	QuantityKg       decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	PricingUnit      string          `json:"pricing_unit" validate:"max=50"`
	UnitFactor       decimal.Decimal `json:"unit_factor" validate:"gte=0"`
	UnitPrice        decimal.Decimal `json:"unit_price" validate:"gt=0"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	PaymentAccountID *int64          `json:"payment_account_id" validate:"omitempty,gt=0"`
	InvoiceNumber    *string         `json:"invoice_number" validate:"omitempty,max=100"`
	Notes            *string         `json:"notes"`
}

func (r purchaseRequest) toService(date time.Time) trading.PurchaseRequest {
	return trading.PurchaseRequest{
		CropID:           r.CropID,
		SupplierID:       r.SupplierID,
		PurchaseDate:     date,
		QuantityKg:       r.QuantityKg,
		PricingUnit:      r.PricingUnit,
		UnitFactor:       r.UnitFactor,
		UnitPrice:        r.UnitPrice,
		AmountPaid:       r.AmountPaid,
		PaymentAccountID: r.PaymentAccountID,
		InvoiceNumber:    r.InvoiceNumber,
		Notes:            r.Notes,
	}
}

type purchaseReturnRequest struct {
	ReturnDate string          `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
	QuantityKg decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	Reason     *string         `json:"reason"`
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "purchase_date", req.PurchaseDate)
	if !ok {
		return
	}
	p, err := h.purchases.AddPurchase(r.Context(), req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("purchase creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/purchases/%d", p.ID))
	RespondSuccess(w, http.StatusCreated, p)
}

func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	p, err := h.purchases.GetPurchase(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, p)
}

func (h *PurchaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req purchaseRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "purchase_date", req.PurchaseDate)
	if !ok {
		return
	}
	upd, err := h.purchases.UpdatePurchase(r.Context(), id, req.toService(date))
	if err != nil {
		logging.FromContext(r.Context()).Warn("purchase update failed", "error", err, "purchase_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/purchases/%d", upd.Purchase.ID))
	RespondSuccess(w, http.StatusOK, upd)
}

func (h *PurchaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.purchases.DeletePurchase(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("purchase deletion failed", "error", err, "purchase_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PurchaseHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req purchaseReturnRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "return_date", req.ReturnDate)
	if !ok {
		return
	}
	ret, err := h.purchases.AddPurchaseReturn(r.Context(), trading.PurchaseReturnRequest{
		PurchaseID: id,
		ReturnDate: date,
		QuantityKg: req.QuantityKg,
		Reason:     req.Reason,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("purchase return failed", "error", err, "purchase_id", id)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/purchase-returns/%d", ret.ID))
	RespondSuccess(w, http.StatusCreated, ret)
}

func (h *PurchaseHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	ret, err := h.purchases.GetPurchaseReturn(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, ret)
}

func (h *PurchaseHandler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.purchases.DeletePurchaseReturn(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("purchase return deletion failed", "error", err, "return_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
