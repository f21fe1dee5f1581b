package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting foodgram api",
		zap.String("environment", cfg.Environment.String()),
		zap.String("db_driver", cfg.DBDriver))

	db, err := database.Open(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.RunMigrations(ctx, db, cfg.MigrationsDir, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var tokens service.TokenStore = service.NoopTokenStore{}
	var limiter *middleware.RateLimiter
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		tokens = service.NewRedisTokenStore(client)
		limiter = middleware.NewRecipeCreationRateLimiter(client, cfg.RecipeRateLimit, logger)
	} else {
		logger.Warn("redis is not configured; logout revocation and rate limiting are disabled")
	}

	srv := server.NewServer(cfg, api.Deps{
		Auth:          service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, tokens),
		Users:         service.NewUserService(db),
		Recipes:       service.NewRecipeService(db),
		Collections:   service.NewCollectionService(db),
		Catalog:       service.NewCatalogService(db),
		RecipeLimiter: limiter,
		HealthCheck:   healthCheck(db),
	}, logger)

	return srv.Run(ctx)
}

func healthCheck(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return database.HealthCheck(ctx, db)
	}
}
