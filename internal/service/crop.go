package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
)

const tableCrops = "crops"

type CreateCropRequest struct {
	Name         string
	Category     *string
	PricingUnits []domain.PricingUnit
}

type CropService struct {
	db    txRunner
	crops cropRepository
	stock stockReader
	audit auditor
}

func NewCropService(db txRunner, crops cropRepository, stock stockReader, audit auditor) *CropService {
	return &CropService{db: db, crops: crops, stock: stock, audit: audit}
}

func (s *CropService) CreateCrop(ctx context.Context, req CreateCropRequest) (*domain.Crop, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("CreateCrop: %w", domain.NewValidationError(nil, "crop name is required"))
	}
	if err := domain.ValidatePricingUnits(req.PricingUnits); err != nil {
		return nil, fmt.Errorf("CreateCrop: %w", err)
	}

	crop := &domain.Crop{
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		PricingUnits: req.PricingUnits,
	}
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.crops.Create(ctx, tx, crop); err != nil {
			return err
		}
		return s.audit.Audit(ctx, tx, tableCrops, crop.ID, domain.AuditInsert, nil, crop)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateCrop: %w", err)
	}

	logging.FromContext(ctx).Info("crop created", "crop_id", crop.ID, "name", crop.Name)
	return crop, nil
}

func (s *CropService) DeactivateCrop(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		crop, err := s.crops.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !crop.IsActive {
			return nil
		}

		n, err := s.crops.CountDependents(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewValidationError(domain.ErrHasDependents, "crop %d has %d transactions", id, n)
		}

		if err := s.crops.Deactivate(ctx, tx, id); err != nil {
			return err
		}
		updated := *crop
		updated.IsActive = false
		return s.audit.Audit(ctx, tx, tableCrops, id, domain.AuditUpdate, crop, &updated)
	})
	if err != nil {
		return fmt.Errorf("DeactivateCrop: %w", err)
	}

	logging.FromContext(ctx).Info("crop deactivated", "crop_id", id)
	return nil
}

func (s *CropService) ListCrops(ctx context.Context, includeInactive bool) ([]domain.Crop, error) {
	crops, err := s.crops.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("ListCrops: %w", err)
	}
	return crops, nil
}

func (s *CropService) GetCrop(ctx context.Context, id int64) (*domain.Crop, error) {
	crop, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetCrop: %w", err)
	}
	return crop, nil
}

// GetStock returns the crop's stock position. A crop that never moved has
// zero stock at zero cost.
func (s *CropService) GetStock(ctx context.Context, cropID int64) (*domain.InventoryRecord, error) {
	if _, err := s.crops.GetByID(ctx, cropID); err != nil {
		return nil, fmt.Errorf("GetStock: %w", err)
	}
	rec, err := s.stock.Get(ctx, cropID)
	if err != nil {
		return nil, fmt.Errorf("GetStock: %w", err)
	}
	return rec, nil
}
