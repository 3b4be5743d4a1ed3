package database

import (
	"fmt"

	"eva_harper_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate runs schema migrations for all models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.WaitlistEntry{},
		&models.SavedImage{},
		&models.Outfit{},
		&models.Rating{},
		&models.Session{},
		&models.PaymentTransaction{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
