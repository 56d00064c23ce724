package database

import (
	"fmt"
	"log"

	"wms-app/config"
	"wms-app/models"
	"wms-app/wms/layout"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/rand"
	"gorm.io/gorm"
)

func RunSeeders(db *gorm.DB) {
	SeedUserMaster(db)
	SeedWarehouse(db)
	SeedDemoPallets(db)
}

// SeedUnit registers the default business unit in the master database.
func SeedUnit(db *gorm.DB) {
	var count int64
	db.Model(&models.BusinessUnit{}).Where("db_name = ?", config.DBUnit).Count(&count)
	if count > 0 {
		return
	}

	bu := models.BusinessUnit{
		DbName:   config.DBUnit,
		IsActive: true,
	}
	if err := db.Create(&bu).Error; err != nil {
		log.Println("Failed to seed business unit:", err)
	}
}

func SeedUserMaster(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Failed to hash seed password:", err)
		return
	}

	user := models.User{
		Username: "admin",
		Password: string(hashed),
		Name:     "Administrator",
		Email:    "admin@localhost",
		Role:     "admin",
	}
	if err := db.Create(&user).Error; err != nil {
		log.Println("Failed to seed admin user:", err)
	}
}

// SeedWarehouse creates the demo warehouse with a default layout and its
// generated positions.
func SeedWarehouse(db *gorm.DB) {
	var count int64
	db.Model(&models.Warehouse{}).Where("code = ?", "WH01").Count(&count)
	if count > 0 {
		return
	}

	warehouse := models.Warehouse{
		Code:     "WH01",
		Name:     "Main Warehouse",
		IsActive: true,
	}
	if err := db.Create(&warehouse).Error; err != nil {
		log.Println("Failed to seed warehouse:", err)
		return
	}

	core := layout.New()
	m := models.Layout{
		WhsCode:         warehouse.Code,
		Rows:            core.Rows(),
		Modules:         core.Modules(),
		Floors:          core.Floors(),
		CapacityPerCell: core.CapacityPerCell(),
		Capacity:        core.Capacity(),
	}
	if err := db.Create(&m).Error; err != nil {
		log.Println("Failed to seed layout:", err)
		return
	}

	positions, err := layout.Generate(core)
	if err != nil {
		log.Println("Failed to generate seed positions:", err)
		return
	}
	rows := make([]models.StoragePosition, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, models.StoragePosition{
			WhsCode:     warehouse.Code,
			Code:        p.Code,
			Description: p.Description,
			Row:         p.Row,
			ModuleNo:    p.Module,
			Floor:       p.Floor,
			MaxCapacity: p.MaxCapacity,
			IsActive:    true,
		})
	}
	if err := db.CreateInBatches(rows, 500).Error; err != nil {
		log.Println("Failed to seed positions:", err)
	}
}

func SeedDemoPallets(db *gorm.DB) {
	var count int64
	db.Model(&models.Pallet{}).Count(&count)
	if count > 0 {
		return
	}

	for i := 1; i <= 5; i++ {
		pallet := models.Pallet{
			PalletCode:  fmt.Sprintf("PLT-%06d", rand.Intn(900000)+100000),
			ShipmentRef: fmt.Sprintf("RCV-2025-%03d", i),
			WhsCode:     "WH01",
			Status:      models.PalletStatusPending,
		}
		if err := db.Create(&pallet).Error; err != nil {
			log.Println("Failed to seed pallet:", err)
		}
	}
}
