package main

import (
	"context"
	"log"
	"time"

	"supply_manager/internal/config"
	"supply_manager/internal/database"
	"supply_manager/internal/logger"
	"supply_manager/internal/migrations"
	"supply_manager/internal/repository"
	"supply_manager/internal/services"
	"supply_manager/pkg/jwtutil"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zlog, err := logger.Init(cfg.LogLevel, cfg.AppEnv, "init-db")
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	db, err := database.Initialize(cfg.DatabaseURL, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	userService := services.NewUserService(repository.NewUserRepository(db), jwtutil.NewSigner(cfg.JWTSecret, cfg.TokenLifetime()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := migrations.RunMigrations(ctx, db, userService, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		zlog.Fatal("Database initialization failed", zap.Error(err))
	}

	zlog.Info("Database initialization completed successfully!")
}
