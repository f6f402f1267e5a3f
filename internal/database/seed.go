package database

import (
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/clgportal/backend_v1/internal/config"
	"github.com/clgportal/backend_v1/internal/models"
	"github.com/clgportal/backend_v1/internal/utils"
)

// SeedAdmin creates the initial admin account when no admin exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:     strings.ToLower(cfg.AdminEmail),
		Password:  hashed,
		Role:      models.RoleAdmin,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
		Active:    true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded initial admin:", admin.Email)
	return nil
}
