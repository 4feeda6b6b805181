package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mizu-20/statify/internal/config"
	"github.com/Mizu-20/statify/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the Postgres schema. Every statement is idempotent, so running
it against an up-to-date database is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storageDriver = config.StoragePostgres
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
