package models

import (
	"gorm.io/gorm"
)

// Layout is the persisted aisle x module x floor grid for one warehouse.
// Capacity is denormalized for list screens and recomputed on every
// structural mutation by the layout controller.
type Layout struct {
	gorm.Model
	WhsCode         string  `json:"whs_code" gorm:"index"`
	Rows            int     `json:"rows"`
	Modules         int     `json:"modules"`
	Floors          int     `json:"floors"`
	CapacityPerCell float64 `json:"capacity_per_cell"`
	Capacity        float64 `json:"capacity"`
	CreatedBy       int
	UpdatedBy       int
	DeletedBy       int

	InactiveCells []LayoutInactiveCell `gorm:"foreignKey:LayoutID;references:ID;constraint:OnDelete:CASCADE" json:"inactive_cells"`
}

type LayoutInactiveCell struct {
	gorm.Model
	LayoutID uint `json:"layout_id" gorm:"index:idx_layout_cell,unique"`
	Row      int  `json:"row" gorm:"index:idx_layout_cell,unique"`
	ModuleNo int  `json:"module" gorm:"column:module_no;index:idx_layout_cell,unique"`
	Floor    int  `json:"floor" gorm:"index:idx_layout_cell,unique"`
}
