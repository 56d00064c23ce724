package models

import (
	"gorm.io/gorm"
)

// StoragePosition is one addressable slot generated from an active layout
// cell. Regeneration replaces the full set for a warehouse.
type StoragePosition struct {
	gorm.Model
	WhsCode     string  `json:"whs_code" gorm:"index:idx_whs_position,unique"`
	Code        string  `json:"code" gorm:"index:idx_whs_position,unique"`
	Description string  `json:"description"`
	Row         int     `json:"row"`
	ModuleNo    int     `json:"module" gorm:"column:module_no"`
	Floor       int     `json:"floor"`
	MaxCapacity float64 `json:"max_capacity"`
	IsActive    bool    `json:"is_active" gorm:"default:true"`
	CreatedBy   int
	UpdatedBy   int
	DeletedBy   int
}
