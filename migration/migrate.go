package migration

import (
	"wms-app/models"

	"gorm.io/gorm"
)

// Migrate runs auto-migration for the master database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.BusinessUnit{},
	)
}

// MigrateBusinessUnit runs auto-migration for one business-unit database.
func MigrateBusinessUnit(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserSession{},

		&models.Warehouse{},
		&models.Layout{},
		&models.LayoutInactiveCell{},
		&models.StoragePosition{},
		&models.Pallet{},
		&models.PalletAllocation{},

		&models.IntegrationLog{},
	)
}
