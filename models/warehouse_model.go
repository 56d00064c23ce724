package models

import (
	"gorm.io/gorm"
)

type Warehouse struct {
	gorm.Model
	Code        string `json:"code" gorm:"unique"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active" gorm:"default:true"`
	CreatedBy   int
	UpdatedBy   int
	DeletedBy   int
}
