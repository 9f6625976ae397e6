package trading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agri-trade-ledger/internal/domain"
	"github.com/josh-kwaku/agri-trade-ledger/internal/logging"
	"github.com/josh-kwaku/agri-trade-ledger/internal/service/ledger"
)

type AdjustmentRequest struct {
	CropID         int64
	AdjustmentDate time.Time
	AdjustmentType domain.AdjustmentType
	QuantityKg     decimal.Decimal
	Reason         *string
}

func (s *Service) AddInventoryAdjustment(ctx context.Context, req AdjustmentRequest) (*domain.InventoryAdjustment, error) {
	var adj *domain.InventoryAdjustment
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if adj, err = s.addAdjustment(ctx, tx, req); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableAdjustments, adj.ID, domain.AuditInsert, nil, adj)
	})
	if err != nil {
		return nil, fmt.Errorf("AddInventoryAdjustment: %w", err)
	}

	logging.FromContext(ctx).Info("inventory adjusted",
		"adjustment_id", adj.ID,
		"crop_id", adj.CropID,
		"type", adj.AdjustmentType,
		"quantity_kg", adj.QuantityKg,
		"total_cost", adj.TotalCost,
	)
	return adj, nil
}

func (s *Service) DeleteInventoryAdjustment(ctx context.Context, id int64) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		adj, err := s.adjustments.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Reverse(ctx, tx, adj.Ref()); err != nil {
			return err
		}
		if err := s.adjustments.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.ledger.Audit(ctx, tx, tableAdjustments, id, domain.AuditDelete, adj, nil)
	})
	if err != nil {
		return fmt.Errorf("DeleteInventoryAdjustment: %w", err)
	}

	logging.FromContext(ctx).Info("inventory adjustment deleted", "adjustment_id", id)
	return nil
}

func (s *Service) GetInventoryAdjustment(ctx context.Context, id int64) (*domain.InventoryAdjustment, error) {
	adj, err := s.adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetInventoryAdjustment: %w", err)
	}
	return adj, nil
}

func (s *Service) validateAdjustment(req AdjustmentRequest) error {
	if !req.AdjustmentType.IsValid() {
		return fmt.Errorf("validateAdjustment: %w", domain.NewValidationError(nil, "unknown adjustment type %q", req.AdjustmentType))
	}
	if !domain.RoundQuantity(req.QuantityKg).IsPositive() {
		return fmt.Errorf("validateAdjustment: %w", domain.NewValidationError(domain.ErrInvalidQuantity, "quantity %s", req.QuantityKg))
	}
	if req.AdjustmentDate.IsZero() {
		return fmt.Errorf("validateAdjustment: %w", domain.NewValidationError(nil, "adjustment date is required"))
	}
	return nil
}

// addAdjustment values the adjustment at the crop's current average cost.
// Surplus is received at that cost so the average does not move.
func (s *Service) addAdjustment(ctx context.Context, tx *sql.Tx, req AdjustmentRequest) (*domain.InventoryAdjustment, error) {
	if err := s.validateAdjustment(req); err != nil {
		return nil, fmt.Errorf("addAdjustment: %w", err)
	}

	crop, err := s.activeCrop(ctx, tx, req.CropID)
	if err != nil {
		return nil, fmt.Errorf("addAdjustment: %w", err)
	}
	stock, err := s.ledger.LockStock(ctx, tx, crop.ID)
	if err != nil {
		return nil, fmt.Errorf("addAdjustment: %w", err)
	}

	qty := domain.RoundQuantity(req.QuantityKg)
	avgCost := stock.AverageUnitCost
	if req.AdjustmentType.IsInbound() {
		if !avgCost.IsPositive() {
			return nil, fmt.Errorf("addAdjustment: %w", domain.NewValidationError(nil,
				"%s has no cost basis to value a surplus", crop.Name))
		}
	} else if qty.GreaterThan(stock.QuantityKg) {
		return nil, fmt.Errorf("addAdjustment: %w", domain.NewValidationError(domain.ErrInsufficientStock,
			"writing off %s kg %s with %s kg in stock", qty, crop.Name, stock.QuantityKg))
	}

	totalCost := domain.RoundMoney(qty.Mul(avgCost))
	if req.AdjustmentType.IsInbound() && !totalCost.IsPositive() {
		return nil, fmt.Errorf("addAdjustment: %w", domain.NewValidationError(domain.ErrInvalidAmount,
			"%s kg %s at %s per kg has no value to post", qty, crop.Name, avgCost))
	}

	adj := &domain.InventoryAdjustment{
		CropID:         crop.ID,
		AdjustmentDate: req.AdjustmentDate,
		AdjustmentType: req.AdjustmentType,
		QuantityKg:     qty,
		UnitCost:       avgCost,
		TotalCost:      totalCost,
		Reason:         req.Reason,
	}
	if err := s.adjustments.Create(ctx, tx, adj); err != nil {
		return nil, fmt.Errorf("addAdjustment: %w", err)
	}

	inventory := domain.JournalEntry{
		EntryDate:   adj.AdjustmentDate,
		AccountID:   s.chart.Inventory,
		Description: fmt.Sprintf("%s of %s kg %s", adj.AdjustmentType, qty, crop.Name),
		SourceType:  domain.SourceTypeAdjustment,
		SourceID:    int64Ptr(adj.ID),
		CropID:      int64Ptr(crop.ID),
		QuantityKg:  decimalPtr(qty),
		UnitPrice:   decimalPtr(avgCost),
	}
	offset := inventory
	offset.CropID, offset.QuantityKg, offset.UnitPrice = nil, nil, nil

	direction := domain.DirectionOut
	if adj.AdjustmentType.IsInbound() {
		direction = domain.DirectionIn
		inventory.Debit = totalCost
		inventory.TransactionType = txnInventoryGain
		offset.AccountID = s.chart.InventoryGain
		offset.Credit = totalCost
		offset.TransactionType = txnInventoryGain
	} else {
		inventory.Credit = totalCost
		inventory.TransactionType = txnInventoryLoss
		offset.AccountID = s.chart.InventoryLoss
		offset.Debit = totalCost
		offset.TransactionType = txnInventoryLoss
	}

	// Stock carried at zero cost is written off by quantity alone.
	if totalCost.IsPositive() {
		if err := s.ledger.Post(ctx, tx, adj.Ref(), []domain.JournalEntry{inventory, offset}); err != nil {
			return nil, fmt.Errorf("addAdjustment: %w", err)
		}
	}

	_, err = s.ledger.ApplyMovement(ctx, tx, ledger.Movement{
		CropID:     crop.ID,
		Direction:  direction,
		QuantityKg: qty,
		UnitCost:   avgCost,
		Ref:        adj.Ref(),
		Date:       adj.AdjustmentDate,
		SourceType: domain.SourceTypeAdjustment,
		SourceID:   int64Ptr(adj.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("addAdjustment: %w", err)
	}
	return adj, nil
}
