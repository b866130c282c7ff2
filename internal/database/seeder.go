// internal/database/seeder.go
package database

import (
	"context"
	"log"
	"time"

	"recycle-pickup-api-server/config"
	"recycle-pickup-api-server/internal/auth"
	"recycle-pickup-api-server/internal/models"

	"github.com/google/uuid"
)

// SeedAdmin creates the admin account from cfg unless one with that email
// already exists. An empty email disables seeding.
func SeedAdmin(ctx context.Context, users *UserRepository, cfg config.AdminConfig) error {
	if cfg.Email == "" {
		log.Println("No admin email configured. Seeding skipped.")
		return nil
	}

	count, err := users.CountByEmail(ctx, cfg.Email)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:          uuid.NewString(),
		Email:       cfg.Email,
		DisplayName: "Admin",
		Password:    hashedPassword,
		AccountType: models.AccountAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := users.Insert(ctx, admin); err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}
