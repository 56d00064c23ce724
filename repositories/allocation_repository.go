package repositories

import (
	"context"
	"errors"
	"fmt"

	"wms-app/models"
	"wms-app/types"
	"wms-app/wms/allocation"

	"gorm.io/gorm"
)

// AllocationRepository is the gorm-backed allocation store. First-fit
// ordering is position code ascending, which matches the order the generator
// emits and the order operators walk the aisles.
type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db}
}

func (r *AllocationRepository) ListPendingPallets(ctx context.Context, whsCode string) ([]allocation.PendingPallet, error) {
	var pallets []models.Pallet
	query := r.db.WithContext(ctx).Where("status = ?", models.PalletStatusPending)
	if whsCode != "" {
		query = query.Where("whs_code = ?", whsCode)
	}
	if err := query.Order("created_at asc").Find(&pallets).Error; err != nil {
		return nil, err
	}

	pending := make([]allocation.PendingPallet, 0, len(pallets))
	for _, p := range pallets {
		pending = append(pending, allocation.PendingPallet{
			ID:          p.ID,
			PalletCode:  p.PalletCode,
			ShipmentRef: p.ShipmentRef,
			WhsCode:     p.WhsCode,
		})
	}
	return pending, nil
}

type candidatePosition struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
}

func (r *AllocationRepository) ProposePosition(ctx context.Context, palletID types.SnowflakeID, whsCode string) (allocation.Proposal, error) {
	var candidate candidatePosition

	err := r.db.WithContext(ctx).
		Model(&models.StoragePosition{}).
		Select("storage_positions.id, storage_positions.code").
		Where("storage_positions.whs_code = ? AND storage_positions.is_active = ?", whsCode, true).
		Where(`NOT EXISTS (
			SELECT 1 FROM pallets
			WHERE pallets.position_id = storage_positions.id
			AND pallets.status = ?
			AND pallets.deleted_at IS NULL)`, models.PalletStatusAllocated).
		Order("storage_positions.code asc").
		First(&candidate).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return allocation.Proposal{}, allocation.ErrNoCandidatePosition
	}
	if err != nil {
		return allocation.Proposal{}, err
	}

	return allocation.Proposal{
		PalletID:     palletID,
		PositionID:   candidate.ID,
		PositionCode: candidate.Code,
	}, nil
}

func (r *AllocationRepository) CommitAllocation(ctx context.Context, c allocation.Confirmation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pallet models.Pallet
		if err := tx.First(&pallet, "id = ?", c.PalletID).Error; err != nil {
			return fmt.Errorf("pallet %s not found: %w", c.PalletID, err)
		}

		positionID := c.PositionID
		positionCode := ""

		// Manual mode may override the suggested position with a free-text
		// code entered by the operator.
		if c.Method == allocation.MethodManual && c.Evidence.PositionCode != "" {
			var override models.StoragePosition
			if err := tx.First(&override, "whs_code = ? AND code = ?", pallet.WhsCode, c.Evidence.PositionCode).Error; err != nil {
				return fmt.Errorf("position %s not found: %w", c.Evidence.PositionCode, err)
			}
			positionID = override.ID
			positionCode = override.Code
		} else {
			var position models.StoragePosition
			if err := tx.First(&position, positionID).Error; err != nil {
				return fmt.Errorf("position %d not found: %w", positionID, err)
			}
			positionCode = position.Code
		}

		// Idempotent replay: committing the same pair again is a no-op.
		if pallet.Status == models.PalletStatusAllocated {
			if pallet.PositionID == positionID {
				return nil
			}
			return fmt.Errorf("pallet %s already allocated elsewhere", c.PalletID)
		}

		var occupants int64
		if err := tx.Model(&models.Pallet{}).
			Where("position_id = ? AND status = ?", positionID, models.PalletStatusAllocated).
			Count(&occupants).Error; err != nil {
			return err
		}
		if occupants > 0 {
			return fmt.Errorf("position %s already occupied", positionCode)
		}

		pallet.Status = models.PalletStatusAllocated
		pallet.PositionID = positionID
		pallet.UpdatedBy = c.AllocatedBy
		if err := tx.Save(&pallet).Error; err != nil {
			return err
		}

		return tx.Create(&models.PalletAllocation{
			PalletID:            pallet.ID,
			PositionID:          positionID,
			PositionCode:        positionCode,
			Method:              string(c.Method),
			ScannedPalletCode:   c.ScannedPalletCode,
			ScannedPositionCode: c.ScannedPositionCode,
			AllocatedBy:         c.AllocatedBy,
		}).Error
	})
}
