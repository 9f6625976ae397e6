package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/trading"
)

type adjustmentService interface {
	AddInventoryAdjustment(ctx context.Context, req trading.AdjustmentRequest) (*domain.InventoryAdjustment, error)
	DeleteInventoryAdjustment(ctx context.Context, id int64) error
	GetInventoryAdjustment(ctx context.Context, id int64) (*domain.InventoryAdjustment, error)
}

type stockService interface {
	GetStock(ctx context.Context, cropID int64) (*domain.InventoryRecord, error)
}

type InventoryHandler struct {
	adjustments adjustmentService
	stock       stockService
}

func NewInventoryHandler(adjustments adjustmentService, stock stockService) *InventoryHandler {
	return &InventoryHandler{adjustments: adjustments, stock: stock}
}

type adjustmentRequest struct {
	CropID         int64           `json:"crop_id" validate:"gt=0"`
	AdjustmentDate string          `json:"adjustment_date" validate:"omitempty,datetime=2006-01-02"`
	AdjustmentType string          `json:"adjustment_type" validate:"required,oneof=DAMAGE SHORTAGE SURPLUS"`
	QuantityKg     decimal.Decimal `json:"quantity_kg" validate:"gt=0"`
	Reason         *string         `json:"reason"`
}

func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	cropID, appErr := pathID(r, "cropId")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rec, err := h.stock.GetStock(r.Context(), cropID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, rec)
}

func (h *InventoryHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	date, ok := requestDate(w, "adjustment_date", req.AdjustmentDate)
	if !ok {
		return
	}
	adj, err := h.adjustments.AddInventoryAdjustment(r.Context(), trading.AdjustmentRequest{
		CropID:         req.CropID,
		AdjustmentDate: date,
		AdjustmentType: domain.AdjustmentType(req.AdjustmentType),
		QuantityKg:     req.QuantityKg,
		Reason:         req.Reason,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("inventory adjustment failed", "error", err, "crop_id", req.CropID)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/inventory/adjustments/%d", adj.ID))
	RespondSuccess(w, http.StatusCreated, adj)
}

func (h *InventoryHandler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	adj, err := h.adjustments.GetInventoryAdjustment(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, adj)
}

func (h *InventoryHandler) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.adjustments.DeleteInventoryAdjustment(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("adjustment deletion failed", "error", err, "adjustment_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
