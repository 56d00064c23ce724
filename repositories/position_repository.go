package repositories

import (
	"errors"

	"wms-app/models"
	"wms-app/wms/layout"

	"gorm.io/gorm"
)

// ErrPositionsOccupied blocks a destructive regeneration while pallets still
// sit in the warehouse.
var ErrPositionsOccupied = errors.New("warehouse has occupied positions")

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db}
}

func (r *PositionRepository) GetPositions(whsCode string) ([]models.StoragePosition, error) {
	var positions []models.StoragePosition
	query := r.db.Order("code asc")
	if whsCode != "" {
		query = query.Where("whs_code = ?", whsCode)
	}
	if err := query.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

type occupancyRow struct {
	Code       string `json:"code"`
	PalletCode string `json:"pallet_code"`
}

// GetOccupiedPositions lists positions currently holding an allocated pallet.
func (r *PositionRepository) GetOccupiedPositions(whsCode string) ([]occupancyRow, error) {
	sqlOccupied := `SELECT p.code, t.pallet_code
	FROM storage_positions p
	INNER JOIN pallets t ON t.position_id = p.id
	WHERE p.whs_code = ? AND t.status = ? AND t.deleted_at IS NULL AND p.deleted_at IS NULL
	ORDER BY p.code`

	var rows []occupancyRow
	if err := r.db.Raw(sqlOccupied, whsCode, models.PalletStatusAllocated).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BulkReplace deletes every position of the warehouse and inserts the newly
// generated set. Delete-then-insert, never merge. Refuses to run while any
// position is occupied; the operator must clear the warehouse first.
func (r *PositionRepository) BulkReplace(whsCode string, positions []layout.Position, userID int) (int, error) {
	occupied, err := r.GetOccupiedPositions(whsCode)
	if err != nil {
		return 0, err
	}
	if len(occupied) > 0 {
		return 0, ErrPositionsOccupied
	}

	rows := make([]models.StoragePosition, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, models.StoragePosition{
			WhsCode:     whsCode,
			Code:        p.Code,
			Description: p.Description,
			Row:         p.Row,
			ModuleNo:    p.Module,
			Floor:       p.Floor,
			MaxCapacity: p.MaxCapacity,
			IsActive:    true,
			CreatedBy:   userID,
			UpdatedBy:   userID,
		})
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("whs_code = ?", whsCode).Delete(&models.StoragePosition{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
