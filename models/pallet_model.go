package models

import (
	"wms-app/controllers/idgen"
	"wms-app/types"

	"gorm.io/gorm"
)

const (
	PalletStatusPending   = "pending"
	PalletStatusAllocated = "allocated"
)

// Pallet is created when a receiving record finishes conference and leaves
// pending once it is allocated to a storage position.
type Pallet struct {
	gorm.Model
	ID          types.SnowflakeID `json:"id" gorm:"primaryKey"`
	PalletCode  string            `json:"pallet_code" gorm:"unique"`
	ShipmentRef string            `json:"shipment_ref"`
	WhsCode     string            `json:"whs_code" gorm:"index"`
	Status      string            `json:"status" gorm:"default:'pending'"`
	PositionID  uint              `json:"position_id"`
	CreatedBy   int
	UpdatedBy   int
	DeletedBy   int
}

func (p *Pallet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == 0 {
		p.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return nil
}

// PalletAllocation is the confirmed evidence record for one allocation.
type PalletAllocation struct {
	gorm.Model
	PalletID            types.SnowflakeID `json:"pallet_id" gorm:"index"`
	PositionID          uint              `json:"position_id" gorm:"index"`
	PositionCode        string            `json:"position_code"`
	Method              string            `json:"method"`
	ScannedPalletCode   string            `json:"scanned_pallet_code"`
	ScannedPositionCode string            `json:"scanned_position_code"`
	AllocatedBy         int               `json:"allocated_by"`
}
