package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/titlememory-backend/internal/app"
	"github.com/yungbote/titlememory-backend/internal/data/db"
	"github.com/yungbote/titlememory-backend/internal/platform/envutil"
	"github.com/yungbote/titlememory-backend/internal/platform/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(envutil.String("LOG_MODE", "development"))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()

		cfg, err := app.LoadConfig(log)
		if err != nil {
			return err
		}
		store, err := db.Open(log, cfg.DB)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer store.Close()
		if err := store.AutoMigrateAll(); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("Schema up to date", "driver", store.Driver())
		return nil
	},
}
