package database

import (
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Hunt{},
		&models.Puzzle{},
		&models.User{},
		&models.ChatMessage{},
		&models.ChatNotification{},
	)
}
