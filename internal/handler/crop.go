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

type cropService interface {
	CreateCrop(ctx context.Context, req service.CreateCropRequest) (*domain.Crop, error)
	DeactivateCrop(ctx context.Context, id int64) error
	ListCrops(ctx context.Context, includeInactive bool) ([]domain.Crop, error)
	GetCrop(ctx context.Context, id int64) (*domain.Crop, error)
}

type CropHandler struct {
	crops cropService
}

func NewCropHandler(crops cropService) *CropHandler {
	return &CropHandler{crops: crops}
}

type pricingUnitRequest struct {
	Name    string            `json:"name" validate:"required,max=50"`
	Factors []decimal.Decimal `json:"factors" validate:"required,min=1,dive,gt=0"`
}

type createCropRequest struct {
	Name         string               `json:"crop_name" validate:"required,max=100"`
	Category     *string              `json:"category" validate:"omitempty,max=50"`
	PricingUnits []pricingUnitRequest `json:"allowed_pricing_units" validate:"dive"`
}

func (h *CropHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCropRequest
	if !decodeValid(w, r, &req) {
		return
	}

	units := make([]domain.PricingUnit, 0, len(req.PricingUnits))
	for _, u := range req.PricingUnits {
		units = append(units, domain.PricingUnit{Name: u.Name, Factors: u.Factors})
	}

	c, err := h.crops.CreateCrop(r.Context(), service.CreateCropRequest{
		Name:         req.Name,
		Category:     req.Category,
		PricingUnits: units,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("crop creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/crops/%d", c.ID))
	RespondSuccess(w, http.StatusCreated, c)
}

func (h *CropHandler) List(w http.ResponseWriter, r *http.Request) {
	crops, err := h.crops.ListCrops(r.Context(), includeInactive(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, crops)
}

func (h *CropHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	c, err := h.crops.GetCrop(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

func (h *CropHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.crops.DeactivateCrop(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Warn("crop deactivation failed", "error", err, "crop_id", id)
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
