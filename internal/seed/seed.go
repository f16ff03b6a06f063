package seed

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clinicdesk-server/internal/config"
	"clinicdesk-server/internal/models"
)

// EnsureAdmin makes sure one administrator account exists, created from the
// externalized ADMIN_EMAIL/ADMIN_PASSWORD settings. It is idempotent and safe
// to run on every boot.
func EnsureAdmin(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("counting admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if cfg.Admin.Password == "" {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("ADMIN_PASSWORD must be set to bootstrap the administrator")
		}
		// Development convenience only.
		cfg.Admin.Password = "changeme-dev-only"
		logger.Warn().Msg("ADMIN_PASSWORD not set, using development default")
	}

	admin := models.User{
		Email:      cfg.Admin.Email,
		FirstName:  "System",
		LastName:   "Administrator",
		Role:       models.RoleAdmin,
		IsActive:   true,
		IsVerified: true,
	}
	if err := admin.SetPassword(cfg.Admin.Password); err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	logger.Info().Str("email", admin.Email).Msg("administrator account created")
	return nil
}
