package database

import (
	"fmt"
	"supply_manager/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	return Open(postgres.Open(databaseURL), logLevel)
}

// Open connects through the given dialector. The schema is left to AutoMigrate.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	zap.L().Info("Database connected", zap.String("dialect", dialector.Name()))
	return db, nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Supplier{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Delivery{},
		&models.Sequence{},
	)
}

// ParseLogLevel maps a config value onto a gorm log level.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
