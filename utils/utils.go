package utils

import (
	"wms-app/models"

	"gorm.io/gorm"
)

func InsertLog(db *gorm.DB, log models.IntegrationLog) {
	db.Create(&log)
}
