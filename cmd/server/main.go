package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supply_manager/internal/config"
	"supply_manager/internal/database"
	"supply_manager/internal/handlers"
	"supply_manager/internal/logger"
	"supply_manager/internal/migrations"
	"supply_manager/internal/redis"
	"supply_manager/internal/repository"
	"supply_manager/internal/services"
	"supply_manager/pkg/jwtutil"
	"supply_manager/pkg/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zlog, err := logger.Init(cfg.LogLevel, cfg.AppEnv, "supply-manager")
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	repos := repository.New(db)
	signer := jwtutil.NewSigner(cfg.JWTSecret, cfg.TokenLifetime())
	userService := services.NewUserService(repos.Users, signer)

	// The admin account is seeded by scripts/init-db.go, not on every start.
	if err := migrations.RunMigrations(context.Background(), db, nil, "", ""); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis only caches stats; the service keeps running without it.
	cache := services.NoopCache()
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			zlog.Warn("Redis unavailable, stats caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cache = redisClient
		}
	}

	var notifier services.Notifier
	if cfg.NotifyURL != "" {
		notifier = notify.NewClient(cfg.NotifyURL, cfg.NotifyUsername, cfg.NotifyPassword)
	}
	events := services.NewEvents(notifier)

	statsService := services.NewStatsService(repos, cache, cfg.CacheLifetime())
	apiHandler := handlers.NewAPIHandler(handlers.Services{
		Users:      userService,
		Catalog:    services.NewCatalogService(repos),
		Orders:     services.NewOrderService(repos, statsService, events),
		Deliveries: services.NewDeliveryService(repos, statsService, events),
		Stats:      statsService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
}
