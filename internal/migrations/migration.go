package migrations

import (
	"context"
	"fmt"

	"supply_manager/internal/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminSeeder creates the bootstrap admin account when it is missing.
type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// RunMigrations brings the schema up to date and creates default data.
func RunMigrations(ctx context.Context, db *gorm.DB, seeder AdminSeeder, adminEmail, adminPassword string) error {
	log := zap.L()
	log.Info("Running database migrations...")

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createDefaultData(ctx, seeder, adminEmail, adminPassword); err != nil {
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

func createDefaultData(ctx context.Context, seeder AdminSeeder, email, password string) error {
	if seeder == nil || email == "" {
		return nil
	}

	created, err := seeder.EnsureAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	if created {
		zap.L().Info("Admin user created", zap.String("email", email))
	} else {
		zap.L().Info("Admin user already exists", zap.String("email", email))
	}
	return nil
}
