package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load reference data into the foodgram database",
		SilenceUsage: true,
	}

	ingredientsCmd.Flags().String("file", "data/ingredients.json", "JSON or CSV file of name/measurement_unit pairs")
	rootCmd.AddCommand(ingredientsCmd, tagsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var ingredientsCmd = &cobra.Command{
	Use:   "ingredients",
	Short: "Import ingredients, skipping ones that already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		ingredients, err := loadIngredients(path)
		if err != nil {
			return err
		}
		return withCatalog(cmd.Context(), func(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) error {
			created, err := catalog.ImportIngredients(ctx, ingredients)
			if err != nil {
				return err
			}
			logger.Info("ingredients imported",
				zap.String("file", path),
				zap.Int("read", len(ingredients)),
				zap.Int64("created", created))
			return nil
		})
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Create the default tag set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) error {
			created, err := catalog.ImportTags(ctx, defaultTags())
			if err != nil {
				return err
			}
			logger.Info("tags imported", zap.Int64("created", created))
			return nil
		})
	},
}

// defaultTags pairs each palette color with one tag
func defaultTags() []models.Tag {
	return []models.Tag{
		{Name: "Breakfast", Slug: "breakfast", Color: models.ColorOrange},
		{Name: "Lunch", Slug: "lunch", Color: models.ColorGreen},
		{Name: "Dinner", Slug: "dinner", Color: models.ColorBlue},
		{Name: "Dessert", Slug: "dessert", Color: models.ColorYellow},
	}
}

func withCatalog(ctx context.Context, fn func(context.Context, *service.CatalogService, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.RunMigrations(ctx, db, cfg.MigrationsDir, logger); err != nil {
		return err
	}

	return fn(ctx, service.NewCatalogService(db), logger)
}
