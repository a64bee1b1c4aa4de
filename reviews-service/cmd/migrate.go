package main

import (
	"context"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the products and reviews tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func runMigrate(ctx context.Context) error {
	cfg, err := setup("reviews-migrate")
	if err != nil {
		return err
	}

	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db.gorm); err != nil {
		return err
	}

	logger.Info().Str("database", cfg.Database.DBName).Msg("Migrations applied")
	return nil
}
