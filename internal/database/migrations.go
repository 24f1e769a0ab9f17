package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jamboshop/jamboshop/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Province{},
		&models.District{},
		&models.Sector{},
		&models.Village{},
		&models.UserAddress{},
		&models.VerificationCode{},
		&models.TokenBlacklist{},
		&models.Store{},
	)
}

// SeedData populates the administrative reference hierarchy top level.
// Provinces are stable reference data; districts and below are managed
// through the admin tooling.
func SeedData(db *gorm.DB) error {
	provinces := []string{
		"Kigali City",
		"Northern Province",
		"Southern Province",
		"Eastern Province",
		"Western Province",
	}

	for _, name := range provinces {
		province := models.Province{Name: name}
		if err := db.Where(models.Province{Name: name}).Attrs(province).FirstOrCreate(&models.Province{}).Error; err != nil {
			return err
		}
	}

	return nil
}

// AutoMigrateAndSeed convenience helper used during application start-up.
func AutoMigrateAndSeed(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := SeedData(db); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	return nil
}
