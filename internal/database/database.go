// internal/database/database.go
package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"labeleven-back/internal/models"
)

func InitDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.LabelData{},
		&models.Report{},
		&models.Pipeline{},
	)
}
